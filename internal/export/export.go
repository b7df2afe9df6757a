// Package export writes price records as CSV, XLSX or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// SheetName is the worksheet written by XLSX exports.
const SheetName = "Harga Emas"

// Header is the column order of tabular exports.
var Header = []string{"vendor", "weight", "unit", "selling_price", "buyback_price", "price", "date"}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	}
	return "", eris.Errorf("export: unknown format %q (want csv, xlsx or json)", s)
}

// Write encodes records to w.
func Write(w io.Writer, format Format, records []model.PriceRecord) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatXLSX:
		return writeXLSX(w, records)
	case FormatJSON:
		return writeJSON(w, records)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

func optional(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func row(r model.PriceRecord) []string {
	return []string{
		r.Vendor,
		r.WeightString(),
		model.UnitGram,
		optional(r.SellingPrice),
		optional(r.BuybackPrice),
		optional(r.BasePrice),
		r.DateString(),
	}
}

func writeCSV(w io.Writer, records []model.PriceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return eris.Wrapf(err, "export: csv row %s %sg", r.Vendor, r.WeightString())
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: csv flush")
}

func writeXLSX(w io.Writer, records []model.PriceRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: xlsx add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, r := range records {
		xr := sheet.AddRow()
		xr.AddCell().SetString(r.Vendor)
		xr.AddCell().SetFloat(r.Weight)
		xr.AddCell().SetString(model.UnitGram)
		for _, p := range []*int64{r.SellingPrice, r.BuybackPrice, r.BasePrice} {
			c := xr.AddCell()
			if p != nil {
				c.SetInt64(*p)
			}
		}
		xr.AddCell().SetString(r.DateString())
	}

	return eris.Wrap(f.Write(w), "export: xlsx write")
}

func writeJSON(w io.Writer, records []model.PriceRecord) error {
	if records == nil {
		records = []model.PriceRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(records), "export: json encode")
}
