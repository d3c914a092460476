package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-dtdict/internal/register"
)

var closeDates struct {
	reception    string
	transmission string
	retour       string
	response     string
	format       string
}

var closeCmd = &cobra.Command{
	Use:   "close [no-teleservice]",
	Short: "Close an answered dossier and archive it",
	Long: `Marks the dossier answered in the register, copies the annexes into its
output directory and zips that directory as <no-teleservice>.zip.

Dates accept YYYY-MM-DD or RFC 3339. The response date defaults to now.`,
	Args: cobra.ExactArgs(1),
	RunE: runClose,
}

func init() {
	f := closeCmd.Flags()
	f.StringVar(&closeDates.response, "response", "", "Date the response was sent")
	f.StringVar(&closeDates.reception, "reception", "", "Date the declaration was received")
	f.StringVar(&closeDates.transmission, "transmission", "", "Date the declaration was transmitted")
	f.StringVar(&closeDates.retour, "retour", "", "Date the declaration came back")
	f.StringVarP(&closeDates.format, "format", "f", formatText, "Output format: text, json or yaml")
	rootCmd.AddCommand(closeCmd)
}

func runClose(cmd *cobra.Command, args []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}

	closure, err := register.ParseClosure(closeDates.reception, closeDates.transmission, closeDates.retour, closeDates.response)
	if err != nil {
		return err
	}

	result, err := s.CloseDossier(cmd.Context(), args[0], closure)
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", args[0], err)
	}

	return render(cmd.OutOrStdout(), closeDates.format, result, func(w io.Writer) {
		fmt.Fprintln(w, result.Message)
		fmt.Fprintf(w, "  Archive: %s (%d files)\n", result.Archive, len(result.Archived))
	})
}
