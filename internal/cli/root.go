// Package cli implements the dtdict command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-dtdict/internal/config"
	"github.com/a3tai/mcp-dtdict/internal/logging"
	"github.com/a3tai/mcp-dtdict/internal/service"
)

var version = "dev"

var (
	cfg *config.Config
	svc *service.Service
)

var rootCmd = &cobra.Command{
	Use:   "dtdict",
	Short: "Answer DT, DICT, DC and ATU declarations",
	Long: `dtdict reads teleservice declaration XML files, writes the receipt form
data for the network operator, fills the PDF receipt and keeps the register
of dossiers.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	config.DefineFlags(rootCmd.PersistentFlags(), config.DefaultConfig())
}

// needsService reports whether cmd works on filings or the register.
func needsService(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return false
	}
	return true
}

func setup(cmd *cobra.Command, _ []string) error {
	if !needsService(cmd) {
		return nil
	}

	loaded, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if version != "dev" {
		loaded.Version = version
	}
	logger := logging.Setup(cmd.ErrOrStderr(), loaded.LogLevel, false)

	s, err := service.New(loaded, service.WithLogger(logger))
	if err != nil {
		return err
	}
	cfg, svc = loaded, s
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if svc == nil {
		return nil
	}
	err := svc.Close()
	svc = nil
	return err
}

func requireService() (*service.Service, error) {
	if svc == nil {
		return nil, errors.New("service not configured")
	}
	return svc, nil
}

// Execute runs the command line until it completes or the process is
// interrupted.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if svc != nil {
		_ = teardown(rootCmd, nil)
	}
	return err
}
