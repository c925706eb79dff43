package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
)

// NewSettingsCmd creates the settings command group
func NewSettingsCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage stored settings",
		Long:  "Get, set, remove, and clear settings stored per scope (global or a workspace id)",
	}
	cmd.PersistentFlags().StringVar(&scope, "scope", string(domain.GlobalScope), "settings scope")

	cmd.AddCommand(newSettingsGetCmd(&scope))
	cmd.AddCommand(newSettingsSetCmd(&scope))
	cmd.AddCommand(newSettingsRemoveCmd(&scope))
	cmd.AddCommand(newSettingsClearCmd(&scope))

	return cmd
}

func newSettingsGetCmd(scope *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the JSON value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := GetCLIContext(cmd).Settings()
			if err != nil {
				return err
			}

			raw, ok, err := settings.GetRaw(cmd.Context(), domain.Scope(*scope), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key not found: %s", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
}

func newSettingsSetCmd(scope *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Set a setting to a JSON value",
		Example: `  watchbot settings set webhooktoggle true
  watchbot settings set webhookkeywords '["alice","ally"]'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				return fmt.Errorf("value must be JSON: %w", err)
			}

			settings, err := GetCLIContext(cmd).Settings()
			if err != nil {
				return err
			}
			if err := settings.Set(cmd.Context(), domain.Scope(*scope), args[0], value); err != nil {
				return fmt.Errorf("set setting: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newSettingsRemoveCmd(scope *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := GetCLIContext(cmd).Settings()
			if err != nil {
				return err
			}
			if err := settings.Remove(cmd.Context(), domain.Scope(*scope), args[0]); err != nil {
				return fmt.Errorf("remove setting: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newSettingsClearCmd(scope *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every setting in the scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := GetCLIContext(cmd).Settings()
			if err != nil {
				return err
			}
			if err := settings.Clear(cmd.Context(), domain.Scope(*scope)); err != nil {
				return fmt.Errorf("clear settings: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cleared scope %s\n", *scope)
			return nil
		},
	}
}
