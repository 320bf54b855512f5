package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock_pulse/internal/market"
	"stock_pulse/internal/models"

	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T, routes map[string]string, status int) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestGetQuote(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/quote": `{"c":148,"d":-2,"dp":-1.3333,"h":150,"l":147,"o":149,"pc":150,"t":1700000000}`,
	}, http.StatusOK)

	key := "k1"
	c := NewClient(srv.URL, time.Second, func() string { return key })

	q, err := c.GetQuote(context.Background(), " aapl")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if !q.Current.Equal(decimal.NewFromInt(148)) || !q.PrevClose.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Unexpected quote %+v", q)
	}

	req := (*seen)[0]
	if req.URL.Query().Get("symbol") != "AAPL" {
		t.Errorf("Expected normalized symbol, got %q", req.URL.Query().Get("symbol"))
	}
	if req.URL.Query().Get("token") != "k1" {
		t.Errorf("Expected token k1, got %q", req.URL.Query().Get("token"))
	}

	// Token is resolved per request.
	key = ""
	c.GetQuote(context.Background(), "AAPL")
	if (*seen)[1].URL.Query().Has("token") {
		t.Error("Empty token must not be sent")
	}
}

func TestGetQuoteUnknownSymbol(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/quote": `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`,
	}, http.StatusOK)
	c := NewClient(srv.URL, time.Second, nil)

	_, err := c.GetQuote(context.Background(), "ZZZZ")
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/quote": `{"error":"Invalid API key"}`,
	}, http.StatusUnauthorized)
	c := NewClient(srv.URL, time.Second, nil)

	_, err := c.GetQuote(context.Background(), "AAPL")
	var apiErr *market.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", apiErr.Status)
	}
}

func TestGetProfile(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/stock/profile2": `{"country":"US","currency":"USD","exchange":"NASDAQ","ipo":"1980-12-12","marketCapitalization":2800000,"name":"Apple Inc","ticker":"AAPL","finnhubIndustry":"Technology"}`,
	}, http.StatusOK)
	c := NewClient(srv.URL, time.Second, nil)

	p, err := c.GetProfile(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Name != "Apple Inc" || p.Industry != "Technology" {
		t.Errorf("Unexpected profile %+v", p)
	}
}

func TestGetProfileEmpty(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"/stock/profile2": `{}`}, http.StatusOK)
	c := NewClient(srv.URL, time.Second, nil)

	if _, err := c.GetProfile(context.Background(), "ZZZZ"); !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestMarketStatusAndSearch(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/market/status": `{"exchange":"US","holiday":null,"isOpen":true,"session":"regular","timezone":"America/New_York","t":1700000000}`,
		"/search":        `{"count":1,"result":[{"description":"APPLE INC","displaySymbol":"AAPL","symbol":"AAPL","type":"Common Stock"}]}`,
	}, http.StatusOK)
	c := NewClient(srv.URL, time.Second, nil)

	st, err := c.GetMarketStatus(context.Background(), "")
	if err != nil {
		t.Fatalf("GetMarketStatus failed: %v", err)
	}
	if !st.IsOpen || st.Holiday != nil {
		t.Errorf("Unexpected status %+v", st)
	}
	if (*seen)[0].URL.Query().Get("exchange") != "US" {
		t.Error("Expected default exchange US")
	}

	res, err := c.SearchSymbol(context.Background(), "apple")
	if err != nil {
		t.Fatalf("SearchSymbol failed: %v", err)
	}
	if res.Count != 1 || res.Result[0].Symbol != "AAPL" {
		t.Errorf("Unexpected search %+v", res)
	}
}

func TestNews(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/news":         `[{"category":"general","datetime":10,"headline":"h1","id":1}]`,
		"/company-news": `[{"category":"company","datetime":20,"headline":"h2","id":2,"related":"AAPL"}]`,
	}, http.StatusOK)
	c := NewClient(srv.URL, time.Second, nil)

	if _, err := c.GetMarketNews(context.Background(), "crypto"); err == nil {
		t.Error("Expected unknown category to be rejected")
	}

	items, err := c.GetMarketNews(context.Background(), market.NewsGeneral)
	if err != nil || len(items) != 1 || items[0].Headline != "h1" {
		t.Fatalf("Unexpected market news %+v (%v)", items, err)
	}

	from := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	items, err = c.GetCompanyNews(context.Background(), "aapl", from, to)
	if err != nil || len(items) != 1 {
		t.Fatalf("Unexpected company news %+v (%v)", items, err)
	}
	q := (*seen)[len(*seen)-1].URL.Query()
	if q.Get("from") != "2026-01-03" || q.Get("to") != "2026-01-10" || q.Get("symbol") != "AAPL" {
		t.Errorf("Unexpected query %v", q)
	}
}
