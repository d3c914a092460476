package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-dtdict/internal/register"
)

var registerFlags struct {
	state  string
	kind   string
	format string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Inspect the register of dossiers",
}

var registerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dossiers, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRegisterList,
}

var registerShowCmd = &cobra.Command{
	Use:   "show [no-teleservice]",
	Short: "Show one dossier",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegisterShow,
}

var registerDeleteCmd = &cobra.Command{
	Use:   "delete [no-teleservice]",
	Short: "Remove a dossier from the register",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegisterDelete,
}

var registerExportCmd = &cobra.Command{
	Use:   "export [file.xlsx]",
	Short: "Export dossiers to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegisterExport,
}

func init() {
	pf := registerCmd.PersistentFlags()
	pf.StringVar(&registerFlags.state, "state", "", "Only dossiers in this state: en (open) or re (answered)")
	pf.StringVar(&registerFlags.kind, "type", "", "Only dossiers of this kind: DT, DICT, DC or ATU")
	registerListCmd.Flags().StringVarP(&registerFlags.format, "format", "f", formatText, "Output format: text, json or yaml")
	registerShowCmd.Flags().StringVarP(&registerFlags.format, "format", "f", formatText, "Output format: text, json or yaml")

	registerCmd.AddCommand(registerListCmd)
	registerCmd.AddCommand(registerShowCmd)
	registerCmd.AddCommand(registerDeleteCmd)
	registerCmd.AddCommand(registerExportCmd)
	rootCmd.AddCommand(registerCmd)
}

func registerFilter() (register.Filter, error) {
	state := strings.ToLower(registerFlags.state)
	if state != "" && state != register.StateOpen && state != register.StateClosed {
		return register.Filter{}, fmt.Errorf("unknown state %q (want %s or %s)", registerFlags.state, register.StateOpen, register.StateClosed)
	}
	return register.Filter{State: state, TypeDemande: strings.ToUpper(registerFlags.kind)}, nil
}

func runRegisterList(cmd *cobra.Command, _ []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}
	filter, err := registerFilter()
	if err != nil {
		return err
	}

	records, err := s.Dossiers(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list dossiers: %w", err)
	}

	return render(cmd.OutOrStdout(), registerFlags.format, records, func(w io.Writer) {
		if len(records) == 0 {
			fmt.Fprintln(w, "No dossier found")
			return
		}
		for _, r := range records {
			declared := ""
			if r.DeclarationAt != nil {
				declared = r.DeclarationAt.Format("02/01/2006")
			}
			fmt.Fprintf(w, "%-4s %-18s %s %-10s %s\n", r.TypeDemande, r.NoTeleservice, r.State, declared, r.TvxCommune)
		}
		fmt.Fprintf(w, "\nTotal: %d dossiers\n", len(records))
	})
}

func runRegisterShow(cmd *cobra.Command, args []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}

	r, err := s.Dossier(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), registerFlags.format, r, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s (%s)\n", r.TypeDemande, r.NoTeleservice, r.State)
		fmt.Fprintf(w, "  Works: %s %s\n", r.TvxCommune, r.TvxAdresse)
		fmt.Fprintf(w, "  Declarant: %s\n", r.DecDenomination)
		for _, d := range []struct {
			label string
			at    *time.Time
		}{
			{"Declared", r.DeclarationAt},
			{"Received", r.ReceptionAt},
			{"Transmitted", r.TransmissionAt},
			{"Returned", r.RetourAt},
			{"Answered", r.ReponseAt},
		} {
			if d.at != nil {
				fmt.Fprintf(w, "  %s: %s\n", d.label, d.at.Local().Format("02/01/2006 15:04"))
			}
		}
	})
}

func runRegisterDelete(cmd *cobra.Command, args []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}
	if err := s.DeleteDossier(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Removed %s from the register\n", args[0])
	return nil
}

func runRegisterExport(cmd *cobra.Command, args []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}
	filter, err := registerFilter()
	if err != nil {
		return err
	}

	n, err := s.ExportRegister(cmd.Context(), args[0], filter)
	if err != nil {
		return fmt.Errorf("failed to export register: %w", err)
	}
	cmd.Printf("Exported %d dossiers to %s\n", n, args[0])
	return nil
}
