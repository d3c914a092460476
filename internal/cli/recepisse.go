package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
	"github.com/a3tai/mcp-dtdict/internal/service"
	"github.com/a3tai/mcp-dtdict/internal/watch"
)

var (
	recepisseFormat  string
	recepissePending bool
)

var recepisseCmd = &cobra.Command{
	Use:   "recepisse [xml-file...]",
	Short: "Produce the receipt of one or more declarations",
	Long: `Writes the receipt FDF of each filing, fills the PDF template when --fill is
set and records the dossier in the register. With --pending every XML file of
the inbox is answered.`,
	RunE: runRecepisse,
}

func init() {
	recepisseCmd.Flags().StringVarP(&recepisseFormat, "format", "f", formatText, "Output format: text, json or yaml")
	recepisseCmd.Flags().BoolVar(&recepissePending, "pending", false, "Answer every filing waiting in the XML directory")
	rootCmd.AddCommand(recepisseCmd)
}

func runRecepisse(cmd *cobra.Command, args []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}

	paths := args
	if recepissePending {
		pending, err := watch.Scan(cfg.XMLDirectory)
		if err != nil {
			return err
		}
		paths = append(paths, pending...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no filing given (pass files or --pending)")
	}

	results := make([]*service.ProcessResult, 0, len(paths))
	var failed []string
	problems := errs.NewCollection(cfg.XMLDirectory)
	for _, path := range paths {
		result, err := s.Process(cmd.Context(), path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed = append(failed, path)
			problems.Add(errs.From(err))
			continue
		}
		results = append(results, result)
	}

	if err := render(cmd.OutOrStdout(), recepisseFormat, results, func(w io.Writer) {
		for _, r := range results {
			printProcess(w, r)
		}
	}); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d filing(s) not answered: %s (%s)", len(failed), strings.Join(failed, ", "), problems.Summary())
	}
	return nil
}

func printProcess(w io.Writer, r *service.ProcessResult) {
	fmt.Fprintf(w, "%s %s -> %s\n", r.Kind, r.NoTeleservice, r.OutputDirectory)
	if r.FDFPath != "" {
		fmt.Fprintf(w, "  FDF: %s (%d fields)\n", r.FDFPath, r.Entries)
	}
	if r.PDFPath != "" {
		fmt.Fprintf(w, "  PDF: %s\n", r.PDFPath)
	}
	if len(r.MissingTags) > 0 {
		fmt.Fprintf(w, "  Missing template fields: %s\n", strings.Join(r.MissingTags, ", "))
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warning)
	}
}
