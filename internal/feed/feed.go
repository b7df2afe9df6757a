// Package feed renders prices and price changes as RSS and Atom.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lacak-emas/lacak-emas-api/internal/model"
)

// WIB is Western Indonesia Time. Items are published at 09:00 WIB on their
// price date.
var WIB = time.FixedZone("WIB", 7*60*60)

const publishHour = 9

// Meta describes the channel.
type Meta struct {
	Title       string
	Description string
	// Link is the page the prices come from.
	Link string
	// SelfURL is the URL the feed is served at.
	SelfURL string
	Now     time.Time
}

// PricesMeta returns the default channel metadata for price feeds.
func PricesMeta(link, selfURL string, now time.Time) Meta {
	return Meta{
		Title:       "Lacak Emas - Harga Emas Terkini",
		Description: "Update harga emas harian dari Galeri24",
		Link:        link,
		SelfURL:     selfURL,
		Now:         now,
	}
}

// ChangesMeta returns the default channel metadata for the changes feed.
func ChangesMeta(link, selfURL string, now time.Time) Meta {
	return Meta{
		Title:       "Lacak Emas - Perubahan Harga",
		Description: "Notifikasi perubahan harga emas harian",
		Link:        link,
		SelfURL:     selfURL,
		Now:         now,
	}
}

var printer = message.NewPrinter(language.Indonesian)

// Rupiah formats a price as "Rp 1.850.000", or "-" when absent.
func Rupiah(p *int64) string {
	if p == nil {
		return "-"
	}
	return rupiah(*p)
}

func rupiah(v int64) string {
	return printer.Sprintf("Rp %d", v)
}

// signedRupiah prefixes positive amounts with "+".
func signedRupiah(v int64) string {
	if v > 0 {
		return "+" + rupiah(v)
	}
	return rupiah(v)
}

// TrendLabel returns the Indonesian label for t.
func TrendLabel(t model.Trend) string {
	switch t {
	case model.TrendUp:
		return "NAIK"
	case model.TrendDown:
		return "TURUN"
	default:
		return "STABIL"
	}
}

func published(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, publishHour, 0, 0, 0, WIB)
}

func anchor(link, vendor string, weight float64) string {
	slug := strings.ReplaceAll(strings.ToLower(vendor), " ", "-")
	return fmt.Sprintf("%s#%s-%s", link, slug, model.FormatWeight(weight))
}

func newFeed(m Meta) *feeds.Feed {
	f := &feeds.Feed{
		Title:       m.Title,
		Link:        &feeds.Link{Href: m.Link},
		Description: m.Description,
		Author:      &feeds.Author{Name: "Lacak Emas API"},
		Created:     m.Now.In(WIB),
		Updated:     m.Now.In(WIB),
		Id:          m.SelfURL,
	}
	if f.Id == "" {
		f.Id = m.Link
	}
	return f
}

func priceItem(r model.PriceRecord, link string) *feeds.Item {
	weight := r.WeightString()
	desc := strings.Join([]string{
		"<b>Vendor:</b> " + r.Vendor,
		"<b>Berat:</b> " + weight + " gram",
		"<b>Harga Jual:</b> " + Rupiah(r.SellingPrice),
		"<b>Harga Buyback:</b> " + Rupiah(r.BuybackPrice),
		"<b>Tanggal:</b> " + r.DateString(),
	}, "<br>")

	return &feeds.Item{
		Title:       fmt.Sprintf("%s %sg - %s", r.Vendor, weight, Rupiah(r.SellingPrice)),
		Link:        &feeds.Link{Href: anchor(link, r.Vendor, r.Weight)},
		Description: desc,
		Id:          fmt.Sprintf("lacak-emas-%s-%s-%s", r.Vendor, weight, r.DateString()),
		Created:     published(r.Date),
		Updated:     published(r.Date),
	}
}

func changeItem(c model.PriceChange, link string) *feeds.Item {
	weight := model.FormatWeight(c.Weight)
	label := TrendLabel(c.Trend)

	title := fmt.Sprintf("%s %sg %s", c.Vendor, weight, label)
	if c.ChangeAmount != 0 {
		title += " " + signedRupiah(c.ChangeAmount)
	}

	desc := strings.Join([]string{
		"<b>Vendor:</b> " + c.Vendor,
		"<b>Berat:</b> " + weight + " gram",
		"<b>Harga Sebelumnya:</b> " + rupiah(c.PreviousPrice),
		"<b>Harga Sekarang:</b> " + rupiah(c.CurrentPrice),
		fmt.Sprintf("<b>Perubahan:</b> %s (%+.2f%%)", signedRupiah(c.ChangeAmount), c.ChangePercent),
		"<b>Trend:</b> " + label,
		"<b>Tanggal:</b> " + c.DateString(),
	}, "<br>")

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: anchor(link, c.Vendor, c.Weight)},
		Description: desc,
		Id:          fmt.Sprintf("lacak-emas-change-%s-%s-%s", c.Vendor, weight, c.DateString()),
		Created:     published(c.Date),
		Updated:     published(c.Date),
	}
}

// PricesRSS renders records as RSS 2.0.
func PricesRSS(records []model.PriceRecord, m Meta) (string, error) {
	f := newFeed(m)
	for _, r := range records {
		f.Add(priceItem(r, m.Link))
	}
	out, err := f.ToRss()
	return out, eris.Wrap(err, "feed: render prices rss")
}

// PricesAtom renders records as Atom 1.0.
func PricesAtom(records []model.PriceRecord, m Meta) (string, error) {
	f := newFeed(m)
	f.Subtitle = m.Description
	for _, r := range records {
		it := priceItem(r, m.Link)
		it.Content = "<p>" + strings.ReplaceAll(it.Description, "<br>", "</p><p>") + "</p>"
		f.Add(it)
	}
	out, err := f.ToAtom()
	return out, eris.Wrap(err, "feed: render prices atom")
}

// ChangesRSS renders changes as RSS 2.0.
func ChangesRSS(changes []model.PriceChange, m Meta) (string, error) {
	f := newFeed(m)
	for _, c := range changes {
		f.Add(changeItem(c, m.Link))
	}
	out, err := f.ToRss()
	return out, eris.Wrap(err, "feed: render changes rss")
}
