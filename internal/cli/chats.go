package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iyunix/fios-chat/internal/domain"
)

var (
	listCategory string
	deleteForce  bool
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show the category table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tENABLED\tURL")
		for _, c := range domain.Categories {
			ep := application.Router.Resolve(c)
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", c, ep.DisplayName, ep.Enabled, ep.URL)
		}
		return w.Flush()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats, newest first",
	Long: `List stored chats, most recently created first.

Examples:
  fioschat list
  fioschat list --category finance`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var newCmd = &cobra.Command{
	Use:   "new <category>",
	Short: "Start a chat in a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := domain.ParseCategory(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), application.Store.CreateChat(category))
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <chatId> <title>",
	Short: "Rename a chat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(args[1])
		if title == "" {
			return fmt.Errorf("title cannot be empty")
		}
		if !application.Store.RenameChat(args[0], title) {
			return fmt.Errorf("chat not found: %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", args[0], title)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <chatId>",
	Short: "Delete a chat",
	Long: `Delete a chat and all its messages.

Requires confirmation unless --force is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only chats in this category")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runList(cmd *cobra.Command, args []string) error {
	chats := application.Store.Chats()
	if listCategory != "" {
		category, err := domain.ParseCategory(listCategory)
		if err != nil {
			return err
		}
		chats = application.Store.ChatsByCategory(category)
	}

	out := cmd.OutOrStdout()
	if len(chats) == 0 {
		fmt.Fprintln(out, "No chats.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tTITLE\tMESSAGES\tUPDATED")
	for _, c := range chats {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.Category, c.Title, len(c.Messages), c.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runDelete(cmd *cobra.Command, args []string) error {
	c, ok := application.Store.Chat(args[0])
	if !ok {
		return fmt.Errorf("chat not found: %s", args[0])
	}

	if !deleteForce {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("About to delete: %s (%d messages)", c.Title, len(c.Messages)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	application.Store.DeleteChat(c.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", c.ID)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintln(out, prompt)
	fmt.Fprint(out, "\nContinue? [y/N]: ")

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
