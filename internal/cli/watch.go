package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/usecase"
)

// NewWatchCmd creates the watch command group
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Configure the mention watcher",
	}

	cmd.AddCommand(newWatchToggleCmd())
	cmd.AddCommand(newWatchListCmd("keywords", domain.KeyWatchKeywords))
	cmd.AddCommand(newWatchListCmd("exclusions", domain.KeyWatchExclusions))
	cmd.AddCommand(newWatchTestCmd())

	return cmd
}

func settingsUsecase(cmd *cobra.Command) (*usecase.SettingsUsecase, error) {
	settings, err := GetCLIContext(cmd).Settings()
	if err != nil {
		return nil, err
	}
	return usecase.NewSettingsUsecase(settings), nil
}

func newWatchToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "toggle <on|off>",
		Short:     "Turn the watcher on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch strings.ToLower(args[0]) {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}

			uc, err := settingsUsecase(cmd)
			if err != nil {
				return err
			}
			if err := uc.SetEnabled(cmd.Context(), enabled); err != nil {
				return fmt.Errorf("toggle watcher: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watcher %s\n", strings.ToLower(args[0]))
			return nil
		},
	}
}

func newWatchListCmd(name, key string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage watch %s", name),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List watch %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := settingsUsecase(cmd)
			if err != nil {
				return err
			}
			list, err := uc.List(cmd.Context(), key)
			if err != nil {
				return err
			}
			printList(cmd, list)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <entry>...",
		Short: fmt.Sprintf("Add watch %s", name),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := settingsUsecase(cmd)
			if err != nil {
				return err
			}
			list, err := uc.Add(cmd.Context(), key, args...)
			if err != nil {
				return fmt.Errorf("add %s: %w", name, err)
			}
			printList(cmd, list)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <entry>...",
		Short: fmt.Sprintf("Remove watch %s", name),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := settingsUsecase(cmd)
			if err != nil {
				return err
			}
			list, err := uc.Remove(cmd.Context(), key, args...)
			if err != nil {
				return fmt.Errorf("remove %s: %w", name, err)
			}
			printList(cmd, list)
			return nil
		},
	})

	return cmd
}

func newWatchTestCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "test <text>",
		Short: "Check whether a message would notify, without sending anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			settings, err := cliCtx.Settings()
			if err != nil {
				return err
			}

			mode, err := usecase.ParsePatternMode(cliCtx.Config.Watch.PatternMode)
			if err != nil {
				return err
			}
			uc := usecase.NewWatchUsecase(settings, cliCtx.Config.OwnerID, mode, cliCtx.Log)

			msg := &domain.IncomingMessage{
				ID:               "dry-run",
				AuthorID:         author,
				AuthorUsername:   author,
				CleanContent:     strings.Join(args, " "),
				ChannelType:      domain.ChannelTypeDirect,
				IsDirect:         true,
				MentionedUserIDs: map[string]struct{}{},
				CreatedAt:        time.Now(),
			}

			out := cmd.OutOrStdout()
			n := uc.Evaluate(cmd.Context(), msg)
			if n == nil {
				fmt.Fprintln(out, "No notification")
				return nil
			}

			fmt.Fprintln(out, "Would notify")
			fmt.Fprintf(out, "  author:      %s\n", n.AuthorLine)
			fmt.Fprintf(out, "  content:     %s\n", n.ContentField)
			fmt.Fprintf(out, "  attachments: %s\n", n.AttachmentsField)
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "dry-run-user", "author id of the test message")

	return cmd
}

func printList(cmd *cobra.Command, list []string) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	for _, e := range list {
		fmt.Fprintln(out, e)
	}
}
