package dashboard

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func money(v decimal.Decimal) string {
	if v.IsNegative() {
		return "-$" + v.Abs().StringFixed(2)
	}
	return "$" + v.StringFixed(2)
}

func signedMoney(v decimal.Decimal) string {
	if v.IsNegative() {
		return money(v)
	}
	return "+" + money(v)
}

func signedPercent(v decimal.Decimal) string {
	if v.IsNegative() {
		return v.StringFixed(2) + "%"
	}
	return "+" + v.StringFixed(2) + "%"
}

// tone picks the arrow for a change value.
func tone(v decimal.Decimal) string {
	switch {
	case v.IsPositive():
		return "🟢"
	case v.IsNegative():
		return "🔴"
	default:
		return "⚪"
	}
}

func unixTime(sec int64) string {
	if sec == 0 {
		return "--"
	}
	return time.Unix(sec, 0).Format("2006-01-02 15:04")
}

func qty(v decimal.Decimal) string {
	return v.String()
}

func changeLabel(change, pct decimal.Decimal, hasChange, hasPct bool) string {
	if !hasChange || !hasPct {
		return "--"
	}
	return fmt.Sprintf("%s %s (%s)", tone(change), signedMoney(change), signedPercent(pct))
}
