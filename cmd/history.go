package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lacak-emas/lacak-emas-api/internal/feed"
	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/store"
)

var (
	historyVendor string
	historyDays   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print persisted prices for the last N days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyDays < 1 || historyDays > 90 {
			return eris.Errorf("--days must be between 1 and 90, got %d", historyDays)
		}
		if err := cfg.Validate("history"); err != nil {
			return err
		}
		st, err := initStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		today := model.DateOf(time.Now().In(cfg.Location()))
		records, err := st.History(cmd.Context(), store.HistoryFilter{
			Vendor: historyVendor,
			Since:  today.AddDate(0, 0, -historyDays),
		})
		if err != nil {
			return err
		}
		return printHistory(os.Stdout, records)
	},
}

func printHistory(w io.Writer, records []model.PriceRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tVENDOR\tWEIGHT\tSELL\tBUYBACK")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%sg\t%s\t%s\n",
			r.DateString(), r.Vendor, r.WeightString(), feed.Rupiah(r.SellingPrice), feed.Rupiah(r.BuybackPrice))
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&historyVendor, "vendor", "", "vendor name substring")
	historyCmd.Flags().IntVar(&historyDays, "days", 7, "days of history (1-90)")
	rootCmd.AddCommand(historyCmd)
}
