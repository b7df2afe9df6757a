package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lacak-emas/lacak-emas-api/internal/feed"
	"github.com/lacak-emas/lacak-emas-api/internal/model"
	"github.com/lacak-emas/lacak-emas-api/internal/pricing"
	"github.com/lacak-emas/lacak-emas-api/internal/store"
)

const (
	defaultDays = 7
	maxDays     = 90
)

var endpoints = map[string]string{
	"GET /info":           "API information",
	"GET /health":         "Health check",
	"GET /vendors":        "List available vendors",
	"GET /prices":         "Get gold prices with optional filters",
	"GET /prices/changes": "Get price changes (up/down/stable)",
	"GET /prices/history": "Get price history",
	"GET /prices/trend":   "Get trend summary",
	"POST /prices/sync":   "Sync prices to database",
	"POST /cache/clear":   "Clear price cache",
	"GET /feed/rss":       "Prices as RSS 2.0",
	"GET /feed/atom":      "Prices as Atom 1.0",
	"GET /feed/changes":   "Price changes as RSS 2.0",
	"GET /metrics":        "Prometheus metrics",
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app_name":    "Lacak Emas API",
		"version":     Version,
		"status":      "running",
		"description": "REST API untuk mendapatkan harga emas dari Galeri24 dengan tracking perubahan harga",
		"source":      SourceName,
		"persistence": !store.IsDisabled(s.store),
		"cache_ttl":   int(s.prices.CacheTTL() / time.Second),
		"endpoints":   endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleVendors(w http.ResponseWriter, _ *http.Request) {
	vendors := s.catalog.Listed()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"vendors": vendors,
		"total":   len(vendors),
	})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var c pricing.Criteria
	var err error
	c.Vendor = strings.TrimSpace(q.Get("vendor"))
	if c.Weight, err = floatParam(q, "weight"); err != nil {
		writeError(w, r, err)
		return
	}
	if c.MinWeight, err = floatParam(q, "min_weight"); err != nil {
		writeError(w, r, err)
		return
	}
	if c.MaxWeight, err = floatParam(q, "max_weight"); err != nil {
		writeError(w, r, err)
		return
	}
	noCache, err := boolParam(q, "no_cache")
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.prices.Prices(r.Context(), !noCache)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records := pricing.Filter(res.Records, c, s.catalog)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    records,
		Meta: &Meta{
			Source:    SourceName,
			ScrapedAt: res.FetchedAt.In(s.loc).Format(time.RFC3339),
			Total:     len(records),
			Cached:    res.Cached,
			Method:    string(res.Method),
		},
	})
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ChangeFilter{Date: s.today(), Vendor: strings.TrimSpace(q.Get("vendor"))}
	if raw := q.Get("trend"); raw != "" {
		t, ok := model.ParseTrend(strings.ToLower(raw))
		if !ok {
			writeError(w, r, &badRequest{msg: fmt.Sprintf("trend must be up, down or stable, got %q", raw)})
			return
		}
		f.Trend = t
	}

	changes, err := s.store.Changes(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.store.Trend(r.Context(), s.today().AddDate(0, 0, -1))
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary.PeriodDays = 1

	if changes == nil {
		changes = []model.PriceChange{}
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    changes,
		Summary: summary,
		Meta:    s.storeMeta(len(changes)),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weight, err := floatParam(q, "weight")
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := daysParam(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	history, err := s.store.History(r.Context(), store.HistoryFilter{
		Vendor: strings.TrimSpace(q.Get("vendor")),
		Weight: weight,
		Since:  s.today().AddDate(0, 0, -days),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]historyItem, len(history))
	for i, h := range history {
		items[i] = historyItem{
			Vendor:       h.Vendor,
			Weight:       h.Weight,
			SellingPrice: h.SellingPrice,
			BuybackPrice: h.BuybackPrice,
			PriceDate:    h.DateString(),
		}
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Meta:    s.storeMeta(len(items)),
	})
}

type historyItem struct {
	Vendor       string  `json:"vendor"`
	Weight       float64 `json:"weight"`
	SellingPrice *int64  `json:"selling_price"`
	BuybackPrice *int64  `json:"buyback_price"`
	PriceDate    string  `json:"price_date"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	days, err := daysParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.store.Trend(r.Context(), s.today().AddDate(0, 0, -days))
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary.PeriodDays = days

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    summary,
		Meta:    s.storeMeta(summary.Total),
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if store.IsDisabled(s.store) {
		writeError(w, r, store.ErrDisabled)
		return
	}

	res, err := s.prices.Prices(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sum, err := s.syncer.Sync(r.Context(), res.Records)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"run_id":    sum.RunID,
		"saved":     sum.Saved,
		"failed":    sum.Failed,
		"changes":   len(sum.Changes),
		"message":   fmt.Sprintf("Synced %d prices, recorded %d changes", sum.Saved, len(sum.Changes)),
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.prices.ClearCache()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Cache cleared successfully",
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handlePricesRSS(w http.ResponseWriter, r *http.Request) {
	res, err := s.prices.Prices(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := feed.PricesRSS(res.Records, feed.PricesMeta(s.prices.SourceURL(), s.selfURL("/feed/rss"), s.now()))
	s.writeFeed(w, r, "application/rss+xml", out, err)
}

func (s *Server) handlePricesAtom(w http.ResponseWriter, r *http.Request) {
	res, err := s.prices.Prices(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := feed.PricesAtom(res.Records, feed.PricesMeta(s.prices.SourceURL(), s.selfURL("/feed/atom"), s.now()))
	s.writeFeed(w, r, "application/atom+xml", out, err)
}

func (s *Server) handleChangesRSS(w http.ResponseWriter, r *http.Request) {
	changes, err := s.store.Changes(r.Context(), store.ChangeFilter{Date: s.today()})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := feed.ChangesRSS(changes, feed.ChangesMeta(s.prices.SourceURL(), s.selfURL("/feed/changes"), s.now()))
	s.writeFeed(w, r, "application/rss+xml", out, err)
}

func (s *Server) writeFeed(w http.ResponseWriter, r *http.Request, contentType, body string, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) selfURL(path string) string {
	if s.baseURL == "" {
		return ""
	}
	return strings.TrimRight(s.baseURL, "/") + path
}

func (s *Server) storeMeta(total int) *Meta {
	return &Meta{
		Source:    SourceName,
		ScrapedAt: s.timestamp(),
		Total:     total,
	}
}

// query parameters

func floatParam(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, &badRequest{msg: fmt.Sprintf("%s must be a non-negative number, got %q", name, raw)}
	}
	return &v, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &badRequest{msg: fmt.Sprintf("%s must be true or false, got %q", name, raw)}
	}
	return v, nil
}

func daysParam(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("days"))
	if raw == "" {
		return defaultDays, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > maxDays {
		return 0, &badRequest{msg: fmt.Sprintf("days must be between 1 and %d, got %q", maxDays, raw)}
	}
	return v, nil
}
