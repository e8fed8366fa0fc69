package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vishrut/portfolio-chat/internal"
	"github.com/vishrut/portfolio-chat/internal/prompt"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <question>",
	Short: "Print the system prompt and user message sent for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		composer := prompt.NewComposer(a.cfg.OwnerName, a.cfg.HistoryWindow)
		kb := a.knowledge.Get()
		system := composer.Compose(nil, kb)
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			system = composer.ComposeText(nil, kb)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s: %s\n", system, strings.ToUpper(string(internal.RoleUser)), strings.Join(args, " "))
		return nil
	},
}

func init() {
	promptCmd.Flags().Bool("plain", false, "render the plain-text prompt used by the streaming routes")
	rootCmd.AddCommand(promptCmd)
}
