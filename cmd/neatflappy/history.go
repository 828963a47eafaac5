package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/baldhumanity/neat-flappy/storage"
)

var historyStorePath string

// historyCmd lists recorded runs, or the generations of one run.
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show generation history recorded in a sqlite store",
	Long: `Without arguments, lists the run ids found in the store.
With a run id, prints one row per generation of that run.

Examples:
  neatflappy history --db history.db
  neatflappy history --db history.db 5f0c...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store := storage.NewSQLiteStore(historyStorePath)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			runs, err := store.Runs(ctx)
			if err != nil {
				return err
			}
			for _, id := range runs {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		records, err := store.Generations(ctx, args[0])
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no generations recorded for run %s", args[0])
		}
		return printHistory(out, records)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyStorePath, "db", "neatflappy.db", "sqlite history file")
}

func printHistory(w io.Writer, records []storage.GenerationRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GEN\tBEST\tMEAN\tSCORE\tTICKS\tNEURONS\tCONNS\tRECORDED")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%d\t%s\t%d\t%d\t%s\n",
			r.Generation, r.BestFitness, r.MeanFitness, r.Score,
			humanize.Comma(int64(r.Ticks)), r.Neurons, r.Connections,
			humanize.Time(r.RecordedAt))
	}
	return tw.Flush()
}
