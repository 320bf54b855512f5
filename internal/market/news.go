package market

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"stock_pulse/internal/models"
)

const (
	// CompanyNewsWindow is how far back company news is requested.
	CompanyNewsWindow = 7 * 24 * time.Hour
	// CompanyNewsLimit caps the merged company news feed.
	CompanyNewsLimit = 8
)

// CompanyNews is the merged news feed for a set of symbols.
// Failed symbols contribute no items; Err holds the first failure.
type CompanyNews struct {
	Items  []models.CompanyNewsItem
	Failed []string
	Err    error
}

// CollectCompanyNews fetches the last week of news for every unique symbol
// in parallel and merges them newest first.
func CollectCompanyNews(ctx context.Context, p Provider, symbols []string, now time.Time) CompanyNews {
	unique := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		sym := models.NormalizeSymbol(s)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		unique = append(unique, sym)
	}

	from := now.Add(-CompanyNewsWindow)

	type result struct {
		items []models.NewsItem
		err   error
	}
	results := make([]result, len(unique))

	var wg sync.WaitGroup
	for i, sym := range unique {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			items, err := p.GetCompanyNews(ctx, sym, from, now)
			results[i] = result{items: items, err: err}
		}(i, sym)
	}
	wg.Wait()

	var out CompanyNews
	var errs []error
	for i, r := range results {
		if r.err != nil {
			out.Failed = append(out.Failed, unique[i])
			errs = append(errs, r.err)
			continue
		}
		for _, item := range r.items {
			out.Items = append(out.Items, models.CompanyNewsItem{NewsItem: item, Symbol: unique[i]})
		}
	}
	if len(errs) > 0 {
		out.Err = errs[0]
		if len(errs) > 1 {
			out.Err = errors.Join(errs...)
		}
	}

	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].Datetime > out.Items[j].Datetime
	})
	if len(out.Items) > CompanyNewsLimit {
		out.Items = out.Items[:CompanyNewsLimit]
	}
	return out
}
