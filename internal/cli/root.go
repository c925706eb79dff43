// Package cli implements the watchbot command line.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"
	"github.com/DevRickLin/feishu-watchbot/internal/conf"
	"github.com/DevRickLin/feishu-watchbot/internal/data"
	"github.com/DevRickLin/feishu-watchbot/internal/logger"
)

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	EnvFile string
	DBPath  string
	Verbose bool
}

type contextKey struct{}

// CLIContext carries the loaded configuration to subcommands
type CLIContext struct {
	Config *conf.Config
	Log    zerolog.Logger

	settings repo.SettingsRepo
}

// Settings opens the settings store on first use
func (c *CLIContext) Settings() (repo.SettingsRepo, error) {
	if c.settings != nil {
		return c.settings, nil
	}
	settings, err := data.NewSettingsRepo(c.Config.Settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	c.settings = settings
	return settings, nil
}

// Close releases resources opened by subcommands
func (c *CLIContext) Close() error {
	if c.settings == nil {
		return nil
	}
	err := c.settings.Close()
	c.settings = nil
	return err
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var flags GlobalFlags

	rootCmd := &cobra.Command{
		Use:   "watchbot",
		Short: "Feishu mention watcher",
		Long: `watchbot watches Feishu chats for messages that talk about the owner
without mentioning them, and forwards each one to a webhook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}

			// Load .env file if present
			if flags.EnvFile != "" {
				if err := godotenv.Load(flags.EnvFile); err != nil {
					return fmt.Errorf("load %s: %w", flags.EnvFile, err)
				}
			} else {
				_ = godotenv.Load()
			}

			cfg := conf.LoadFromEnv()
			if flags.DBPath != "" {
				cfg.Settings.DBPath = flags.DBPath
			}
			if flags.Verbose {
				cfg.Log.Level = "debug"
			}

			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("%s must be run through Execute", cmd.CommandPath())
			}
			cliCtx.Config = cfg
			cliCtx.Log = logger.New(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.EnvFile, "env-file", "", "env file to load (default .env if present)")
	rootCmd.PersistentFlags().StringVar(&flags.DBPath, "db", "", "settings database path (overrides SETTINGS_DB_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewSettingsCmd())
	rootCmd.AddCommand(NewWatchCmd())

	return rootCmd
}

// GetCLIContext returns the context set up by the root command
func GetCLIContext(cmd *cobra.Command) *CLIContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cliCtx, ok := ctx.Value(contextKey{}).(*CLIContext)
	if !ok {
		return nil
	}
	return cliCtx
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return execute(ctx, NewRootCmd(), &CLIContext{})
}

// execute runs cmd with cliCtx and closes it afterwards, also when the
// command fails (cobra skips post-run hooks on error)
func execute(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext) (err error) {
	defer func() {
		if cerr := cliCtx.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()
	return cmd.ExecuteContext(context.WithValue(ctx, contextKey{}, cliCtx))
}
