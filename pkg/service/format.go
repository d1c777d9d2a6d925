package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rustybot/rustybot/pkg/cost"
	"github.com/rustybot/rustybot/pkg/market"
	"github.com/rustybot/rustybot/pkg/session"
)

// printer renders grouped number output ("1,234,567.89").
var printer = message.NewPrinter(language.English)

// formatISK renders an ISK amount with thousands separators.
func formatISK(v float64) string {
	return printer.Sprintf("%.2f ISK", v)
}

// everefLink builds the reference-site URL for an identifier.
func everefLink(typeID int64) string {
	return fmt.Sprintf("https://everef.net/type/%d", typeID)
}

// formatMarketReply renders per-market quote lines in scope order.
// Quantity multiplies the per-unit quotes here, at the boundary, so the
// underlying quotes stay comparable.
func formatMarketReply(name string, quantity int64, scope market.Scope, results map[string]market.Result) string {
	var b strings.Builder
	if quantity > 1 {
		fmt.Fprintf(&b, "Market prices for %s x%d:\n", name, quantity)
	} else {
		fmt.Fprintf(&b, "Market prices for %s:\n", name)
	}

	for _, m := range scope.Markets {
		res, ok := results[m.Name]
		if !ok || res.Status == market.StatusFailed {
			fmt.Fprintf(&b, "%s | market data unavailable\n", m.Name)
			continue
		}
		if res.Status == market.StatusEmpty {
			fmt.Fprintf(&b, "%s | no orders\n", m.Name)
			continue
		}

		sell := "no sell orders"
		if res.BestSell != nil {
			sell = "Sell: " + formatISK(res.BestSell.Price*float64(quantity))
		}
		buy := "no buy orders"
		if res.BestBuy != nil {
			buy = "Buy: " + formatISK(res.BestBuy.Price*float64(quantity))
		}
		fmt.Fprintf(&b, "%s | %s | %s\n", m.Name, sell, buy)
	}
	return b.String()
}

// formatBreakdown renders a cost breakdown with its missing-input
// lines. Missing materials are always surfaced; the total covers only
// what priced.
func formatBreakdown(b *cost.Breakdown) string {
	var sb strings.Builder

	for _, item := range b.Items {
		fmt.Fprintf(&sb, "%s x%d: %s\n", item.Name, item.Quantity, formatISK(item.Total))
	}
	if b.BaseCost > 0 {
		fmt.Fprintf(&sb, "Base cost: %s\n", formatISK(b.BaseCost))
	}
	for _, name := range b.MissingMaterials {
		fmt.Fprintf(&sb, "%s: price unavailable\n", name)
	}

	fmt.Fprintf(&sb, "Total cost: %s", formatISK(b.TotalCost))
	if len(b.MissingMaterials) > 0 {
		sb.WriteString(" (incomplete)")
	}
	sb.WriteString("\n")

	if b.SellValue != nil {
		fmt.Fprintf(&sb, "Sell value: %s\n", formatISK(*b.SellValue))
	}
	if b.Profit != nil {
		fmt.Fprintf(&sb, "Profit: %s\n", formatISK(*b.Profit))
	}
	return sb.String()
}

// formatOfferReply renders a loyalty offer's cost breakdown with its
// LP efficiency.
func formatOfferReply(itemName string, ob *cost.OfferBreakdown) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Loyalty offer: %s\n", itemName)
	fmt.Fprintf(&sb, "LP cost: %s\n", printer.Sprintf("%d LP", ob.LPCost))
	sb.WriteString(formatBreakdown(&ob.Breakdown))
	if ob.ISKPerLP != nil {
		fmt.Fprintf(&sb, "Efficiency: %s per LP\n", formatISK(*ob.ISKPerLP))
	}
	return sb.String()
}

// formatOfferPage renders one page of a browse session.
func formatOfferPage(list *session.OfferList, namer interface{ NameOf(int64) string }) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s loyalty store — page %d/%d\n", list.CorpName, list.Page+1, list.TotalPages())

	for _, offer := range list.PageSlice() {
		fmt.Fprintf(&sb, "%s — %s + %s\n",
			namer.NameOf(offer.TypeID),
			printer.Sprintf("%d LP", offer.LPCost),
			formatISK(offer.ISKCost))
	}
	return sb.String()
}
