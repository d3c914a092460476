package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-dtdict/internal/watch"
)

var watchFlags struct {
	debounce time.Duration
	scan     bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Answer filings as they arrive in the XML directory",
	Long:  `Watches the XML directory and produces the receipt of every filing written to it, until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", watch.DefaultDebounce, "Quiet period after the last write before a filing is handled")
	watchCmd.Flags().BoolVar(&watchFlags.scan, "scan", false, "Answer the filings already waiting first")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := requireService()
	if err != nil {
		return err
	}

	opts := []watch.Option{
		watch.WithDebounce(watchFlags.debounce),
		watch.WithLogger(slog.Default()),
	}
	if watchFlags.scan {
		opts = append(opts, watch.WithInitialScan())
	}

	w := watch.New(cfg.XMLDirectory, func(ctx context.Context, path string) error {
		result, err := s.Process(ctx, path)
		if err != nil {
			return err
		}
		cmd.Printf("%s %s answered in %s\n", result.Kind, result.NoTeleservice, result.OutputDirectory)
		return nil
	}, opts...)

	cmd.Printf("Watching %s\n", w.Dir())
	return w.Run(cmd.Context())
}
