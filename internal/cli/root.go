// Package cli provides the fioschat command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iyunix/fios-chat/internal/app"
	"github.com/iyunix/fios-chat/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	application *app.Application
)

var rootCmd = &cobra.Command{
	Use:   "fioschat",
	Short: "Category chat backend for Fios customer service",
	Long: `fioschat keeps per-category support conversations (support, finance,
sales, infra) and forwards each user message to the category's webhook.

Categories without an enabled webhook answer with a canned notice.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		application, err = app.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init application: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApplication()
	},
}

func closeApplication() error {
	if application == nil {
		return nil
	}
	err := application.Close(context.Background())
	application = nil
	if err != nil {
		return fmt.Errorf("close application: %w", err)
	}
	return nil
}

// Execute runs the root command. The application is closed even when a
// subcommand fails, so the last snapshot is always flushed.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeApplication(); err == nil {
		err = closeErr
	}
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(probeCmd)
}
