package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lacak-emas/lacak-emas-api/internal/feed"
	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scrape fresh prices, persist them and record day-over-day changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), cfg, "sync")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Prices.Prices(cmd.Context(), false)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		sum, err := env.Syncer.Sync(cmd.Context(), res.Records)
		if err != nil {
			return err
		}
		printSummary(os.Stdout, sum)
		if sum.Saved == 0 && sum.Failed > 0 {
			return eris.Errorf("sync: all %d records failed", sum.Failed)
		}
		return nil
	},
}

func printSummary(w io.Writer, sum syncer.Summary) {
	fmt.Fprintf(w, "run %s: saved %d, failed %d, changes %d (%s)\n",
		sum.RunID, sum.Saved, sum.Failed, len(sum.Changes), sum.Duration.Round(time.Millisecond))
	for _, c := range sum.Changes {
		fmt.Fprintf(w, "  %-16s %6sg  %-6s %s -> %s (%+.2f%%)\n",
			c.Vendor, model.FormatWeight(c.Weight), feed.TrendLabel(c.Trend),
			feed.Rupiah(&c.PreviousPrice), feed.Rupiah(&c.CurrentPrice), c.ChangePercent)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
