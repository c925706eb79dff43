package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevRickLin/feishu-watchbot/internal/biz"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/usecase"
	"github.com/DevRickLin/feishu-watchbot/internal/data"
	"github.com/DevRickLin/feishu-watchbot/internal/infra/feishu"
	"github.com/DevRickLin/feishu-watchbot/internal/infra/webhook"
	"github.com/DevRickLin/feishu-watchbot/internal/server"
	"github.com/DevRickLin/feishu-watchbot/internal/service"
)

const shutdownTimeout = 10 * time.Second

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Feishu and start watching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			cfg := cliCtx.Config
			log := cliCtx.Log

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			webhookClient := webhook.NewClient(cfg.Webhook.BaseURL, cfg.Webhook.ID, cfg.Webhook.Token, cfg.Webhook.Timeout)

			repos, err := data.NewRepositories(cfg.Settings.DBPath, webhookClient)
			if err != nil {
				return fmt.Errorf("init repositories: %w", err)
			}
			defer repos.Close()

			usecases := &biz.Usecases{
				Watch:    usecase.NewWatchUsecase(repos.Settings, cfg.OwnerID, cfg.PatternMode(), log),
				Settings: usecase.NewSettingsUsecase(repos.Settings),
			}

			dispatcher := service.NewDispatcher(repos.Notifier, cfg.OwnerID, cfg.Webhook.MaxInFlight, log)
			watchSvc := service.NewWatchService(usecases.Watch, dispatcher, log)
			feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, log)
			srv := server.NewWatchServer(feishuClient, watchSvc, dispatcher, cfg.Feishu.WorkspaceName, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("owner_id", cfg.OwnerID).
				Str("settings_db", cfg.Settings.DBPath).
				Str("pattern_mode", string(cfg.PatternMode())).
				Msg("Client ready")

			runErr := srv.Start(ctx)

			log.Info().Msg("Shutting down")
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				log.Error().Err(err).Msg("Shutdown error")
			} else if err != nil {
				log.Warn().Msg("Shutdown timed out, pending notifications cancelled")
			}

			return runErr
		},
	}
}
