package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Scrape current prices and write them as CSV, XLSX or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context(), cfg, "export")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Prices.Prices(cmd.Context(), true)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		var w io.Writer = os.Stdout
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", exportOut)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		if err := export.Write(w, format, res.Records); err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.String("format", string(format)),
			zap.String("out", exportOut),
			zap.Int("records", len(res.Records)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv, xlsx or json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
