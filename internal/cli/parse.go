package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-dtdict/internal/service"
)

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse [xml-file]",
	Short: "Show what a declaration contains",
	Long:  `Parses a DT, DICT, DC or ATU filing and prints its fields and works boundary. Nothing is written.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", formatText, "Output format: text, json or yaml")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}

	result, err := s.Inspect(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	return render(cmd.OutOrStdout(), parseFormat, result, func(w io.Writer) {
		printInspect(w, result)
	})
}

func printInspect(w io.Writer, r *service.InspectResult) {
	fmt.Fprintf(w, "%s %s\n", r.Kind, r.NoTeleservice)
	fmt.Fprintf(w, "  File: %s\n\n", r.Path)
	for _, key := range r.Fields.Keys() {
		fmt.Fprintf(w, "  %-22s %s\n", key, r.Fields.Get(key))
	}
	if r.Members == 0 {
		return
	}
	fmt.Fprintf(w, "\n  Boundary: %d member(s) %s\n", r.Members, r.SRSName)
	if r.GeometryError != "" {
		fmt.Fprintf(w, "  Geometry error: %s\n", r.GeometryError)
		return
	}
	fmt.Fprintf(w, "  Polygons: %d, area %.2f\n", r.Polygons, r.Area)
	fmt.Fprintf(w, "  WKT: %s\n", r.WKT)
}
