package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"stock_pulse/internal/market"
	"stock_pulse/internal/models"
	"stock_pulse/internal/settings"

	"github.com/shopspring/decimal"
)

const (
	defaultTradeRows = 10
	maxNewsRows      = 10
)

// CommandDoc describes one command for /help and the console usage text.
type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

// HandleCommand runs one text command and returns the reply.
func (d *Dashboard) HandleCommand(ctx context.Context, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	// Telegram appends the bot name in groups: /quote@stock_pulse_bot
	name, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")

	switch name {
	case "/ping":
		return fmt.Sprintf("Pong 🏓 (up %s)", d.Uptime())
	case "/help", "/start":
		return d.getHelp()
	case "/quote", "/price":
		if len(parts) < 2 {
			return "Usage: /quote <ticker>"
		}
		return d.handleQuoteCommand(ctx, parts[1])
	case "/profile":
		if len(parts) < 2 {
			return "Usage: /profile <ticker>"
		}
		return d.handleProfileCommand(ctx, parts[1])
	case "/market":
		exchange := "US"
		if len(parts) > 1 {
			exchange = strings.ToUpper(parts[1])
		}
		return d.handleMarketCommand(ctx, exchange)
	case "/search":
		if len(parts) < 2 {
			return "Usage: /search <query>"
		}
		return d.handleSearchCommand(ctx, strings.Join(parts[1:], " "))
	case "/news":
		category := market.NewsGeneral
		if len(parts) > 1 {
			category = strings.ToLower(parts[1])
		}
		return d.handleNewsCommand(ctx, category)
	case "/companynews":
		return d.handleCompanyNewsCommand(ctx)
	case "/watch", "/unwatch", "/toggle":
		if len(parts) < 2 {
			return fmt.Sprintf("Usage: %s <ticker>", name)
		}
		return d.handleWatchCommand(name, parts[1])
	case "/watchlist", "/list":
		return d.handleWatchlistCommand(ctx)
	case "/open":
		if len(parts) < 2 {
			return "Usage: /open <ticker>"
		}
		return d.handleOpenCommand(ctx, parts[1])
	case "/close":
		return d.handleCloseCommand()
	case "/view":
		return d.getView()
	case "/buy":
		return d.handleTradeCommand(ctx, models.SideBuy, parts)
	case "/sell":
		return d.handleTradeCommand(ctx, models.SideSell, parts)
	case "/portfolio", "/status":
		return d.handlePortfolioCommand(ctx)
	case "/trades":
		return d.handleTradesCommand(parts)
	case "/apikey":
		return d.handleAPIKeyCommand(ctx, parts)
	default:
		return "Unknown command. Try /help."
	}
}

func (d *Dashboard) getHelp() string {
	var sb strings.Builder
	sb.WriteString("📊 *STOCK PULSE COMMANDS*\n\n")
	for _, cmd := range d.commands {
		sb.WriteString(fmt.Sprintf("🔹 *%s*\n%s\n`%s`\n\n", cmd.Name, cmd.Description, cmd.Example))
	}
	return sb.String()
}

func (d *Dashboard) handleQuoteCommand(ctx context.Context, raw string) string {
	sym := models.NormalizeSymbol(raw)
	q, err := d.quotes.Quote(ctx, sym)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			return fmt.Sprintf("⚠️ No quote for '%s'. Try /search %s", sym, sym)
		}
		log.Printf("Quote lookup failed for %s: %v", sym, err)
		return fmt.Sprintf("⚠️ Error: Could not fetch quote for %s.", sym)
	}
	d.session.SetQuote(sym, &q)

	return fmt.Sprintf("💲 *%s*: %s\nChange: %s\nOpen %s | High %s | Low %s | Prev %s\nUpdated: %s",
		sym, money(q.Current),
		changeLabel(q.Change, q.ChangePercent, true, true),
		money(q.Open), money(q.High), money(q.Low), money(q.PrevClose),
		unixTime(q.Timestamp))
}

func (d *Dashboard) handleProfileCommand(ctx context.Context, raw string) string {
	sym := models.NormalizeSymbol(raw)
	ticket := d.profile.Begin(sym)
	p, err := d.quotes.Profile(ctx, sym)
	if !d.profile.Resolve(ticket, p, err) {
		return fmt.Sprintf("⏭️ Profile request for %s was superseded.", sym)
	}
	if err != nil {
		if errors.Is(err, models.ErrNoData) || errors.Is(err, market.ErrUnsupported) {
			return fmt.Sprintf("⚠️ No profile available for %s.", sym)
		}
		log.Printf("Profile lookup failed for %s: %v", sym, err)
		return fmt.Sprintf("⚠️ Error: Could not fetch profile for %s.", sym)
	}
	return formatProfile(p)
}

func formatProfile(p models.CompanyProfile) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏢 *%s* (%s)\n", p.Name, p.Ticker))
	if p.Industry != "" {
		sb.WriteString(fmt.Sprintf("Industry: %s\n", p.Industry))
	}
	sb.WriteString(fmt.Sprintf("Exchange: %s | %s | %s\n", p.Exchange, p.Country, p.Currency))
	if !p.MarketCap.IsZero() {
		sb.WriteString(fmt.Sprintf("Market Cap: $%sM\n", p.MarketCap.StringFixed(0)))
	}
	if p.IPO != "" {
		sb.WriteString(fmt.Sprintf("IPO: %s\n", p.IPO))
	}
	if p.WebURL != "" {
		sb.WriteString(p.WebURL + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (d *Dashboard) handleMarketCommand(ctx context.Context, exchange string) string {
	ticket := d.status.Begin(exchange)
	var st models.MarketStatus
	s, err := d.provider.GetMarketStatus(ctx, exchange)
	if s != nil {
		st = *s
	}
	if !d.status.Resolve(ticket, st, err) {
		return "⏭️ Market status request was superseded."
	}
	if err != nil {
		log.Printf("Error fetching market status: %v", err)
		return "⚠️ Error: Could not fetch market status."
	}

	state := "CLOSED 🔴"
	if st.IsOpen {
		state = "OPEN 🟢"
	}
	msg := fmt.Sprintf("🏛️ *MARKET STATUS: %s*\nState: %s", st.Exchange, state)
	if st.Session != "" {
		msg += fmt.Sprintf("\nSession: %s", st.Session)
	}
	if st.Holiday != nil && *st.Holiday != "" {
		msg += fmt.Sprintf("\nHoliday: %s", *st.Holiday)
	}
	return msg
}

func (d *Dashboard) handleSearchCommand(ctx context.Context, query string) string {
	ticket := d.search.Begin(query)
	var res models.SymbolSearch
	r, err := d.provider.SearchSymbol(ctx, query)
	if r != nil {
		res = *r
	}
	if !d.search.Resolve(ticket, res, err) {
		return "⏭️ Search was superseded by a newer query."
	}
	if err != nil {
		log.Printf("Error searching symbols: %v", err)
		return "⚠️ Error: Could not search symbols."
	}
	if len(res.Result) == 0 {
		return fmt.Sprintf("🔍 No results found for '%s'.", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 *Results for '%s'*\n", query))
	for _, m := range res.Result {
		sb.WriteString(fmt.Sprintf("- *%s*: %s\n", m.DisplaySymbol, m.Description))
	}
	return sb.String()
}

func (d *Dashboard) handleNewsCommand(ctx context.Context, category string) string {
	if !market.ValidCategory(category) {
		return "Usage: /news [general|merger]"
	}

	if !d.news.Fresh(category, d.config.NewsTTL) {
		ticket := d.news.Begin(category)
		items, err := d.provider.GetMarketNews(ctx, category)
		if !d.news.Resolve(ticket, items, err) {
			return "⏭️ News request was superseded."
		}
	}

	st := d.news.State()
	if st.Err != nil {
		if errors.Is(st.Err, market.ErrUnsupported) {
			return fmt.Sprintf("⚠️ %s news is not available from this provider.", category)
		}
		log.Printf("Error fetching %s news: %v", category, st.Err)
		if !st.HasData {
			return "⚠️ Error: Could not fetch news."
		}
	}
	if len(st.Data) == 0 {
		return "📰 No news right now."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📰 *%s NEWS*\n\n", strings.ToUpper(category)))
	writeNews(&sb, st.Data, maxNewsRows)
	return sb.String()
}

func writeNews(sb *strings.Builder, items []models.NewsItem, limit int) {
	for i, n := range items {
		if i >= limit {
			break
		}
		sb.WriteString(fmt.Sprintf("• *%s*\n  %s · %s\n", n.Headline, n.Source, unixTime(n.Datetime)))
		if n.URL != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", n.URL))
		}
	}
}

func (d *Dashboard) handleCompanyNewsCommand(ctx context.Context) string {
	d.mu.RLock()
	symbols := d.watchlist.Symbols()
	d.mu.RUnlock()
	if len(symbols) == 0 {
		return "⭐ Watchlist is empty. Add symbols with /watch <ticker>."
	}

	key := strings.Join(symbols, ",")
	if !d.companyNews.Fresh(key, d.config.NewsTTL) {
		ticket := d.companyNews.Begin(key)
		cn := market.CollectCompanyNews(ctx, d.provider, symbols, d.now())
		var err error
		if len(cn.Items) == 0 {
			err = cn.Err
		}
		if !d.companyNews.Resolve(ticket, cn, err) {
			return "⏭️ Company news request was superseded."
		}
	}

	st := d.companyNews.State()
	if st.Err != nil && !st.HasData {
		log.Printf("Error fetching company news: %v", st.Err)
		return "⚠️ Error: Could not fetch company news."
	}
	if len(st.Data.Items) == 0 {
		return "📰 No company news in the last 7 days."
	}

	var sb strings.Builder
	sb.WriteString("📰 *WATCHLIST NEWS*\n\n")
	for _, n := range st.Data.Items {
		sb.WriteString(fmt.Sprintf("• [%s] *%s*\n  %s · %s\n", n.Symbol, n.Headline, n.Source, unixTime(n.Datetime)))
	}
	if len(st.Data.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️ Unavailable: %s", strings.Join(st.Data.Failed, ", ")))
	}
	return sb.String()
}

func (d *Dashboard) handleWatchCommand(name, raw string) string {
	sym := models.NormalizeSymbol(raw)
	if sym == "" {
		return fmt.Sprintf("Usage: %s <ticker>", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch name {
	case "/watch":
		if !d.watchlist.Add(sym) {
			return fmt.Sprintf("⭐ %s is already on the watchlist.", sym)
		}
		d.persistLocked()
		return fmt.Sprintf("⭐ %s added to the watchlist.", sym)
	case "/unwatch":
		if !d.watchlist.Remove(sym) {
			return fmt.Sprintf("%s is not on the watchlist.", sym)
		}
		d.persistLocked()
		return fmt.Sprintf("🗑️ %s removed from the watchlist.", sym)
	default:
		present := d.watchlist.Toggle(sym)
		d.persistLocked()
		if present {
			return fmt.Sprintf("⭐ %s added to the watchlist.", sym)
		}
		return fmt.Sprintf("🗑️ %s removed from the watchlist.", sym)
	}
}

func (d *Dashboard) handleWatchlistCommand(ctx context.Context) string {
	d.mu.RLock()
	symbols := d.watchlist.Symbols()
	d.mu.RUnlock()
	if len(symbols) == 0 {
		return "⭐ Watchlist is empty. Add symbols with /watch <ticker>."
	}

	if _, err := d.quotes.Refresh(ctx, symbols); err != nil {
		log.Printf("Watchlist refresh incomplete: %v", err)
	}

	var sb strings.Builder
	sb.WriteString("⭐ *WATCHLIST*\n")
	for _, sym := range symbols {
		e, ok := d.quotes.Quotes.Get(sym)
		if !ok {
			sb.WriteString(fmt.Sprintf("• %s: --\n", sym))
			continue
		}
		q := e.Value
		sb.WriteString(fmt.Sprintf("• %s: %s %s %s\n", sym, money(q.Current), tone(q.Change), signedPercent(q.ChangePercent)))
	}
	return sb.String()
}

func (d *Dashboard) handleOpenCommand(ctx context.Context, raw string) string {
	sym := models.NormalizeSymbol(raw)
	if sym == "" {
		return "Usage: /open <ticker>"
	}

	var warnings []string
	if err := d.session.Open(ctx, sym); err != nil {
		log.Printf("WARN: live feed unavailable for %s: %v", sym, err)
		warnings = append(warnings, "⚠️ Live feed unavailable, showing polled quotes.")
	}

	if q, err := d.quotes.Quote(ctx, sym); err != nil {
		log.Printf("Quote lookup failed for %s: %v", sym, err)
		warnings = append(warnings, "⚠️ Could not fetch quote.")
	} else {
		d.session.SetQuote(sym, &q)
	}

	ticket := d.profile.Begin(sym)
	p, err := d.quotes.Profile(ctx, sym)
	d.profile.Resolve(ticket, p, err)

	msg := d.getView()
	if len(warnings) > 0 {
		msg += "\n\n" + strings.Join(warnings, "\n")
	}
	return msg
}

func (d *Dashboard) handleCloseCommand() string {
	sym := d.session.Symbol()
	if sym == "" {
		return "No view open."
	}
	if err := d.session.Close(); err != nil {
		log.Printf("WARN: closing live view: %v", err)
	}
	return fmt.Sprintf("👋 Closed %s.", sym)
}

func (d *Dashboard) getView() string {
	v := d.session.View()
	if v.Symbol == "" {
		return "No view open. Use /open <ticker>."
	}

	var sb strings.Builder
	title := v.Symbol
	if st := d.profile.State(); st.Key == v.Symbol && st.HasData && st.Data.Name != "" {
		title = fmt.Sprintf("%s · %s", v.Symbol, st.Data.Name)
	}
	sb.WriteString(fmt.Sprintf("📈 *%s*\n", title))

	price := "--"
	if v.HasPrice {
		price = money(v.Price)
	}
	status := "○ waiting for live ticks"
	if v.Live {
		status = "● LIVE"
	}
	sb.WriteString(fmt.Sprintf("Price: %s %s\n", price, status))
	sb.WriteString(fmt.Sprintf("Change: %s\n", changeLabel(v.Change, v.ChangePercent, v.HasChange, v.HasChangePercent)))

	d.mu.RLock()
	pos, held := d.ledger.Position(v.Symbol)
	watching := d.watchlist.Contains(v.Symbol)
	d.mu.RUnlock()

	if watching {
		sb.WriteString("⭐ On watchlist\n")
	}
	if held {
		sb.WriteString(fmt.Sprintf("Position: %s @ %s", qty(pos.Quantity), money(pos.AveragePrice)))
		if v.HasPrice {
			val := evaluate(pos, v.Price)
			sb.WriteString(fmt.Sprintf(" | P&L %s", val))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// tradePrice resolves the default execution price: the live view when
// symbol is open, else a fresh quote.
func (d *Dashboard) tradePrice(ctx context.Context, sym string) (decimal.Decimal, error) {
	if d.session.Symbol() == sym {
		if v := d.session.View(); v.HasPrice {
			return v.Price, nil
		}
	}
	q, err := d.quotes.Quote(ctx, sym)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Current, nil
}

func (d *Dashboard) handleTradeCommand(ctx context.Context, side models.Side, parts []string) string {
	usage := fmt.Sprintf("Usage: /%s <ticker> <qty> [price]", side)
	if len(parts) < 3 {
		return usage
	}

	sym := models.NormalizeSymbol(parts[1])
	quantity, err := decimal.NewFromString(parts[2])
	if err != nil {
		return "⚠️ Invalid quantity format."
	}

	var price decimal.Decimal
	if len(parts) >= 4 {
		if price, err = decimal.NewFromString(parts[3]); err != nil {
			return "⚠️ Invalid price format."
		}
	} else {
		if price, err = d.tradePrice(ctx, sym); err != nil {
			log.Printf("Price lookup failed for %s: %v", sym, err)
			return fmt.Sprintf("⚠️ Could not fetch price for %s. Pass it explicitly: %s", sym, usage)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if side == models.SideBuy {
		if !d.ledger.Buy(sym, price, quantity) {
			return "❌ Order rejected: symbol, price and quantity must be valid and positive."
		}
		d.persistLocked()
		pos, _ := d.ledger.Position(sym)
		return fmt.Sprintf("✅ *BUY FILLED*\n%s %s @ %s\nPosition: %s @ avg %s",
			sym, qty(quantity), money(price), qty(pos.Quantity), money(pos.AveragePrice))
	}

	before, held := d.ledger.Position(sym)
	if !d.ledger.Sell(sym, price, quantity) {
		switch {
		case sym == "" || !price.IsPositive() || !quantity.IsPositive():
			return "❌ Order rejected: symbol, price and quantity must be valid and positive."
		case !held:
			return fmt.Sprintf("❌ No %s position to sell.", sym)
		default:
			return fmt.Sprintf("❌ Insufficient shares: holding %s, requested %s.", qty(before.Quantity), qty(quantity))
		}
	}
	d.persistLocked()

	realized := price.Sub(before.AveragePrice).Mul(quantity)
	msg := fmt.Sprintf("✅ *SELL FILLED*\n%s %s @ %s\nRealized: %s", sym, qty(quantity), money(price), signedMoney(realized))
	if after, ok := d.ledger.Position(sym); ok {
		msg += fmt.Sprintf("\nRemaining: %s @ avg %s", qty(after.Quantity), money(after.AveragePrice))
	} else {
		msg += "\nPosition closed."
	}
	return msg
}

func (d *Dashboard) handleTradesCommand(parts []string) string {
	limit := defaultTradeRows
	if len(parts) > 1 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return "Usage: /trades [n]"
		}
		limit = n
	}

	d.mu.RLock()
	trades := d.ledger.Trades()
	d.mu.RUnlock()

	if len(trades) == 0 {
		return "📭 No trades yet."
	}
	if limit > len(trades) {
		limit = len(trades)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧾 *TRADES* (%d of %d)\n", limit, len(trades)))
	for _, t := range trades[:limit] {
		icon := "🟢"
		if t.Side == models.SideSell {
			icon = "🔴"
		}
		sb.WriteString(fmt.Sprintf("%s %s %s %s %s @ %s\n",
			icon, unixTime(t.Timestamp/1000), strings.ToUpper(string(t.Side)), t.Symbol, qty(t.Quantity), money(t.Price)))
	}
	return sb.String()
}

func (d *Dashboard) handleAPIKeyCommand(ctx context.Context, parts []string) string {
	usage := "Usage: /apikey set <key> | clear | show"
	if len(parts) < 2 {
		return usage
	}

	switch strings.ToLower(parts[1]) {
	case "show":
		if key := d.prefs.Masked(); key != "" {
			return fmt.Sprintf("🔑 API key: %s", key)
		}
		if d.config.FinnhubAPIKey != "" {
			return fmt.Sprintf("🔑 No key set. Using default %s.", settings.Mask(d.config.FinnhubAPIKey))
		}
		return "🔑 No key set. Requests are sent without a token."
	case "set":
		if len(parts) < 3 {
			return usage
		}
		d.prefs.SetAPIKey(parts[2])
	case "clear":
		d.prefs.ClearAPIKey()
	default:
		return usage
	}

	msg := "🔑 API key cleared."
	if key := d.prefs.Masked(); key != "" {
		msg = fmt.Sprintf("🔑 API key saved (%s).", key)
	}
	if err := d.store.SaveSettings(d.prefs.Snapshot()); err != nil {
		log.Printf("ERROR: save settings: %v", err)
		msg += "\n⚠️ Applied for this session but could not be saved."
	}

	// The socket authenticates at connect time; reopen so the new key applies.
	if sym := d.session.Symbol(); sym != "" {
		if err := d.session.Open(ctx, sym); err != nil {
			log.Printf("WARN: reopening live view for %s: %v", sym, err)
		}
	}
	return msg
}
