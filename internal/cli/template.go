package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var templateFlags struct {
	filing string
	format string
}

var templateCmd = &cobra.Command{
	Use:   "template [pdf]",
	Short: "List the form fields of a receipt template",
	Long: `Lists the AcroForm fields of a receipt template, the configured one when no
file is given. With --filing, the receipt of that filing is built in memory
and the tags the form cannot receive are reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTemplate,
}

func init() {
	templateCmd.Flags().StringVar(&templateFlags.filing, "filing", "", "Check the template against the receipt of this filing")
	templateCmd.Flags().StringVarP(&templateFlags.format, "format", "f", formatText, "Output format: text, json or yaml")
	rootCmd.AddCommand(templateCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}

	template := ""
	if len(args) == 1 {
		template = args[0]
	}
	report, err := s.CheckTemplate(template, templateFlags.filing)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), templateFlags.format, report, func(w io.Writer) {
		fmt.Fprintf(w, "Template: %s (%d pages)\n", report.Template, report.Pages)
		if len(report.Fields) == 0 {
			fmt.Fprintln(w, "No form field found")
		}
		for _, f := range report.Fields {
			fmt.Fprintf(w, "  %-40s %s\n", f.Name, f.Type)
		}
		if report.Filing == "" {
			return
		}
		if len(report.MissingTags) == 0 {
			fmt.Fprintf(w, "\nEvery receipt tag of %s has a field\n", report.Filing)
			return
		}
		fmt.Fprintf(w, "\nMissing fields (%d):\n", len(report.MissingTags))
		for _, tag := range report.MissingTags {
			fmt.Fprintf(w, "  %s\n", tag)
		}
	})
}
