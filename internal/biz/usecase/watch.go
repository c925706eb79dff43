package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"
)

// WatchUsecase decides whether a message references the owner
type WatchUsecase struct {
	settingsRepo repo.SettingsRepo
	ownerID      string
	mode         PatternMode
	log          zerolog.Logger
}

// NewWatchUsecase creates a new mention watch usecase
func NewWatchUsecase(
	settingsRepo repo.SettingsRepo,
	ownerID string,
	mode PatternMode,
	log zerolog.Logger,
) *WatchUsecase {
	return &WatchUsecase{
		settingsRepo: settingsRepo,
		ownerID:      ownerID,
		mode:         mode,
		log:          log.With().Str("component", "watch").Logger(),
	}
}

// OwnerID returns the id of the watched account
func (uc *WatchUsecase) OwnerID() string {
	return uc.ownerID
}

// LoadConfig reads the watcher settings from the global scope.
// Read errors are logged and resolve to the defaults.
func (uc *WatchUsecase) LoadConfig(ctx context.Context) domain.WatchConfig {
	cfg := domain.DefaultWatchConfig()

	enabled, err := uc.settingsRepo.GetBool(ctx, domain.GlobalScope, domain.KeyWatchToggle, cfg.Enabled)
	if err != nil {
		uc.log.Warn().Err(err).Str("key", domain.KeyWatchToggle).Msg("Failed to read setting, using default")
	} else {
		cfg.Enabled = enabled
	}

	keywords, err := uc.settingsRepo.GetStrings(ctx, domain.GlobalScope, domain.KeyWatchKeywords, cfg.Keywords)
	if err != nil {
		uc.log.Warn().Err(err).Str("key", domain.KeyWatchKeywords).Msg("Failed to read setting, using default")
	} else {
		cfg.Keywords = keywords
	}

	exclusions, err := uc.settingsRepo.GetStrings(ctx, domain.GlobalScope, domain.KeyWatchExclusions, cfg.Exclusions)
	if err != nil {
		uc.log.Warn().Err(err).Str("key", domain.KeyWatchExclusions).Msg("Failed to read setting, using default")
	} else {
		cfg.Exclusions = exclusions
	}

	return cfg
}

// Classify loads the current settings and classifies the message
func (uc *WatchUsecase) Classify(ctx context.Context, msg *domain.IncomingMessage) bool {
	cfg := uc.LoadConfig(ctx)
	return uc.classify(msg, cfg)
}

// Evaluate classifies the message and builds its notification.
// It returns nil when the message does not trigger.
func (uc *WatchUsecase) Evaluate(ctx context.Context, msg *domain.IncomingMessage) *domain.Notification {
	if !uc.Classify(ctx, msg) {
		return nil
	}
	return domain.BuildNotification(msg)
}

func (uc *WatchUsecase) classify(msg *domain.IncomingMessage, cfg domain.WatchConfig) bool {
	matched, errs := Classify(msg, cfg, uc.ownerID, uc.mode)
	for _, err := range errs {
		uc.log.Warn().Err(err).Msg("Skipping watch pattern")
	}
	return matched
}

// Classify applies the watch rules in order: watcher enabled, not the owner's
// own message, owner not explicitly mentioned, some keyword matches, and no
// exclusion matches. Pattern compile errors are returned alongside the verdict.
func Classify(msg *domain.IncomingMessage, cfg domain.WatchConfig, ownerID string, mode PatternMode) (bool, []error) {
	if !cfg.Enabled {
		return false, nil
	}
	if msg.IsFrom(ownerID) {
		return false, nil
	}
	if msg.Mentions(ownerID) {
		return false, nil
	}

	keywords, errs := CompilePatterns(cfg.Keywords, mode)
	if !keywords.MatchAny(msg.CleanContent) {
		return false, errs
	}

	exclusions, exErrs := CompilePatterns(activeExclusions(cfg.Exclusions), mode)
	errs = append(errs, exErrs...)
	if exclusions.MatchAny(msg.CleanContent) {
		return false, errs
	}

	return true, errs
}

// activeExclusions drops the "none" sentinel
func activeExclusions(exclusions []string) []string {
	var result []string
	for _, e := range exclusions {
		if strings.EqualFold(strings.TrimSpace(e), domain.NoExclusions) {
			continue
		}
		result = append(result, e)
	}
	return result
}
