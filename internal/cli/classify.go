package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <question>",
	Short: "Show how a question would be classified",
	Long: `Run the relevance classifier on a question without contacting the
completion model. Companies and skills from the knowledge base are included
exactly as the server would include them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		profile, _ := cmd.Flags().GetString("profile")
		query := strings.Join(args, " ")

		cls := classifier(profile, a.knowledge.Get())
		res := cls.Classify(query, nil)

		verdict := color.New(color.FgGreen, color.Bold).Sprint("RELEVANT")
		if !res.IsRelevant {
			verdict = color.New(color.FgRed, color.Bold).Sprint("REFUSED")
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  profile=%s confidence=%.2f\n", verdict, cls.Profile().Name, res.Confidence)
		if res.Reason != "" {
			fmt.Fprintf(out, "%s\n", color.New(color.Faint).Sprint(res.Reason))
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("profile", "strict", "classifier profile: strict, lenient or advisory")
	rootCmd.AddCommand(classifyCmd)
}
