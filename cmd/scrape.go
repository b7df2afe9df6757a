package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/pricing"
)

var (
	scrapeVendor  string
	scrapeWeight  float64
	scrapeNoCache bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape current prices and print them as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), cfg, "scrape")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Prices.Prices(cmd.Context(), !scrapeNoCache)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		c := pricing.Criteria{Vendor: scrapeVendor}
		if cmd.Flags().Changed("weight") {
			c.Weight = &scrapeWeight
		}
		records := pricing.Filter(res.Records, c, env.Catalog)

		zap.L().Info("scrape complete",
			zap.String("method", string(res.Method)),
			zap.Int("records", len(res.Records)),
			zap.Int("matched", len(records)),
		)
		return printJSON(os.Stdout, records)
	},
}

func printJSON(w io.Writer, records []model.PriceRecord) error {
	if records == nil {
		records = []model.PriceRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(records), "write json")
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeVendor, "vendor", "", "vendor slug or name (antam, ubs, galeri24, dinar, baby)")
	scrapeCmd.Flags().Float64Var(&scrapeWeight, "weight", 0, "exact weight in grams")
	scrapeCmd.Flags().BoolVar(&scrapeNoCache, "no-cache", false, "bypass the cache")
	rootCmd.AddCommand(scrapeCmd)
}
