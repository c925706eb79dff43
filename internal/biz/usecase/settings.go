package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"
)

// SettingsUsecase edits the watcher settings in the global scope
type SettingsUsecase struct {
	settingsRepo repo.SettingsRepo
}

// NewSettingsUsecase creates a new settings usecase
func NewSettingsUsecase(settingsRepo repo.SettingsRepo) *SettingsUsecase {
	return &SettingsUsecase{settingsRepo: settingsRepo}
}

// SetEnabled turns the watcher on or off
func (uc *SettingsUsecase) SetEnabled(ctx context.Context, enabled bool) error {
	return uc.settingsRepo.Set(ctx, domain.GlobalScope, domain.KeyWatchToggle, enabled)
}

// List returns the keyword or exclusion list stored under key
func (uc *SettingsUsecase) List(ctx context.Context, key string) ([]string, error) {
	def, err := listDefault(key)
	if err != nil {
		return nil, err
	}
	return uc.settingsRepo.GetStrings(ctx, domain.GlobalScope, key, def)
}

// Add appends entries to the list under key, skipping duplicates.
// Adding to a list holding only the "none" sentinel replaces it.
func (uc *SettingsUsecase) Add(ctx context.Context, key string, entries ...string) ([]string, error) {
	current, err := uc.List(ctx, key)
	if err != nil {
		return nil, err
	}

	var list []string
	for _, e := range current {
		if !strings.EqualFold(e, domain.NoExclusions) || key != domain.KeyWatchExclusions {
			list = append(list, e)
		}
	}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || containsFold(list, e) {
			continue
		}
		list = append(list, e)
	}

	if err := uc.settingsRepo.Set(ctx, domain.GlobalScope, key, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Remove deletes entries from the list under key. An emptied exclusion list
// goes back to the "none" sentinel.
func (uc *SettingsUsecase) Remove(ctx context.Context, key string, entries ...string) ([]string, error) {
	current, err := uc.List(ctx, key)
	if err != nil {
		return nil, err
	}

	list := slices.DeleteFunc(slices.Clone(current), func(e string) bool {
		return containsFold(entries, e)
	})
	if len(list) == 0 && key == domain.KeyWatchExclusions {
		list = domain.DefaultWatchExclusions()
	}
	if list == nil {
		list = []string{}
	}

	if err := uc.settingsRepo.Set(ctx, domain.GlobalScope, key, list); err != nil {
		return nil, err
	}
	return list, nil
}

func listDefault(key string) ([]string, error) {
	switch key {
	case domain.KeyWatchKeywords:
		return domain.DefaultWatchKeywords(), nil
	case domain.KeyWatchExclusions:
		return domain.DefaultWatchExclusions(), nil
	default:
		return nil, fmt.Errorf("%s is not a watch list", key)
	}
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(e string) bool {
		return strings.EqualFold(e, s)
	})
}
