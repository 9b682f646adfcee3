package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iyunix/fios-chat/internal/domain"
	"github.com/iyunix/fios-chat/internal/services/webhook"
)

var sendCmd = &cobra.Command{
	Use:   "send <chatId> <message>",
	Short: "Send a message and print the reply",
	Long: `Send a message to a chat and wait for the reply from its category.

The chat becomes the active chat. A failed delivery keeps the user message.

Examples:
  fioschat send 3f0c... "Preciso da segunda via do boleto"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID := args[0]
		text := strings.Join(args[1:], " ")

		application.Store.SetActiveChat(chatID)
		result, err := application.Dispatcher.Send(cmd.Context(), chatID, text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !result.Delivered {
			fmt.Fprintln(out, "(chat was deleted before the reply arrived)")
			return nil
		}
		fmt.Fprintln(out, result.Reply.Content)
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <category>",
	Short: "Send a test message to a category endpoint",
	Long: `Deliver a test message straight to a category's endpoint without
touching stored chats. Useful to check webhook URLs and credentials.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := domain.ParseCategory(args[0])
		if err != nil {
			return err
		}
		endpoint := application.Router.Resolve(category)
		if !endpoint.Enabled {
			return fmt.Errorf("%s has no enabled endpoint", endpoint.DisplayName)
		}

		client := webhook.NewClient(&webhook.ClientConfig{
			Timeout:      application.Config.WebhookTimeout,
			OpenAIAPIKey: application.Config.OpenAIAPIKey,
		})
		reply, err := client.Deliver(cmd.Context(), endpoint, webhook.Request{
			ChatID:   "probe",
			Message:  "ping",
			Category: category,
		})
		if err != nil {
			return fmt.Errorf("probe %s: %w", endpoint.DisplayName, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s answered: %s\n", endpoint.DisplayName, reply)
		return nil
	},
}
