package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/flacial/chattmpl/internal/chattemplate"
	"github.com/flacial/chattmpl/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var formatOutputFlag bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show how a chat template is segmented and what it degrades",
	Long: `Loads the chat template the same way rendering does and prints a Markdown report
of its fragments and of every construct that would be emitted as literal text.`,
	RunE: runInspectCommand,
}

func runInspectCommand(cmd *cobra.Command, args []string) error {
	source, err := resolveTemplate(cmd.Context())
	if err != nil {
		return err
	}

	report := inspectReport(source, chattemplate.Parse(source.text))

	if viper.GetBool("always_format") {
		// Give the report a glammm 💅
		renderedOutput, renderErr := glamour.Render(report, "auto")
		if renderErr != nil {
			log.Logger.Error().Err(renderErr).Msg("Error rendering report.")
		} else {
			report = renderedOutput
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), report)
	return nil
}

func inspectReport(source templateSource, tmpl *chattemplate.Template) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Template %s\n\n", source.origin)
	b.WriteString("| # | Kind | Line | Text |\n")
	b.WriteString("|---|------|------|------|\n")
	for i, f := range tmpl.Fragments() {
		line := strings.Count(tmpl.Source()[:f.Offset], "\n") + 1
		fmt.Fprintf(&b, "| %d | %s | %d | %s |\n", i+1, f.Kind, line, markdownCell(f.Text))
	}

	b.WriteString("\n## Fallbacks\n\n")
	diags := tmpl.Check()
	if len(diags) == 0 {
		b.WriteString("None. The template renders without fail-soft fallbacks.\n")
		return b.String()
	}
	for _, d := range diags {
		fmt.Fprintf(&b, "- %d:%d %s %s\n", d.Line, d.Column, d.Kind, markdownCell(d.Text))
	}
	return b.String()
}

// markdownCell quotes s so newlines stay visible and pipes do not split the
// table cell.
func markdownCell(s string) string {
	return "`" + strings.ReplaceAll(strconv.Quote(s), "|", `\|`) + "`"
}

func init() {
	inspectCmd.Flags().BoolVarP(&formatOutputFlag, "format", "F", false, "Render the report as formatted Markdown")
	viper.BindPFlag("always_format", inspectCmd.Flags().Lookup("format"))

	rootCmd.AddCommand(inspectCmd)
}
