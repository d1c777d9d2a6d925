package cost

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/provider"
)

// PriceSource resolves the lowest sell price for an identifier in its
// pricing venue.
type PriceSource interface {
	LowestSell(ctx context.Context, typeID int64) (float64, error)
}

// Namer renders a display name for an identifier.
type Namer interface {
	NameOf(typeID int64) string
}

// Request describes one acquisition path to price.
type Request struct {
	ProductTypeID int64
	// ProductQuantity is how many units one completed path yields.
	ProductQuantity int64
	Materials       []Material
	// BaseCost is a flat ISK component of the path (e.g. the offer's
	// direct ISK cost).
	BaseCost float64
}

// PricedItem is one input with its resolved cost.
type PricedItem struct {
	Name      string
	Quantity  int64
	UnitPrice float64
	Total     float64
}

// Breakdown is the priced result of an acquisition path. TotalCost
// sums only the inputs that priced successfully; missing inputs are
// listed by name, never silently treated as free in the rendered
// output.
type Breakdown struct {
	Items            []PricedItem
	MissingMaterials []string
	BaseCost         float64
	TotalCost        float64

	// SellValue and Profit are nil when the product itself has no
	// sell price. Absent, never zero.
	SellValue *float64
	Profit    *float64
}

// OfferBreakdown is a Breakdown extended with the loyalty-point
// efficiency of the offer.
type OfferBreakdown struct {
	Breakdown
	LPCost int64

	// ISKPerLP is nil when profit is unknown or the offer costs no LP.
	ISKPerLP *float64
}

// Calculator prices acquisition paths against a price source.
type Calculator struct {
	prices PriceSource
	namer  Namer
	logger zerolog.Logger
}

// NewCalculator creates a calculator over the given price source and
// name resolver.
func NewCalculator(prices PriceSource, namer Namer, logger zerolog.Logger) *Calculator {
	return &Calculator{
		prices: prices,
		namer:  namer,
		logger: logger.With().Str("component", "cost-calculator").Logger(),
	}
}

// BuildCost prices every material and the product concurrently. Each
// material resolves independently: one missing price records the
// material in MissingMaterials without aborting its siblings.
func (c *Calculator) BuildCost(ctx context.Context, req Request) *Breakdown {
	b := &Breakdown{BaseCost: req.BaseCost, TotalCost: req.BaseCost}

	type priced struct {
		item PricedItem
		ok   bool
	}
	results := make([]priced, len(req.Materials))

	var wg sync.WaitGroup
	for i, mat := range req.Materials {
		wg.Add(1)
		go func(i int, mat Material) {
			defer wg.Done()

			name := mat.Name
			if name == "" {
				name = c.namer.NameOf(mat.TypeID)
			}

			price, err := c.prices.LowestSell(ctx, mat.TypeID)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Int64("type_id", mat.TypeID).
					Str("material", name).
					Msg("Material price unavailable")
				results[i] = priced{item: PricedItem{Name: name, Quantity: mat.Quantity}}
				return
			}
			results[i] = priced{
				item: PricedItem{
					Name:      name,
					Quantity:  mat.Quantity,
					UnitPrice: price,
					Total:     price * float64(mat.Quantity),
				},
				ok: true,
			}
		}(i, mat)
	}

	var sellPrice float64
	var sellErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		sellPrice, sellErr = c.prices.LowestSell(ctx, req.ProductTypeID)
	}()
	wg.Wait()

	for _, r := range results {
		if !r.ok {
			b.MissingMaterials = append(b.MissingMaterials, r.item.Name)
			continue
		}
		b.Items = append(b.Items, r.item)
		b.TotalCost += r.item.Total
	}
	sort.Strings(b.MissingMaterials)

	if sellErr == nil {
		qty := req.ProductQuantity
		if qty < 1 {
			qty = 1
		}
		sellValue := sellPrice * float64(qty)
		profit := sellValue - b.TotalCost
		b.SellValue = &sellValue
		b.Profit = &profit
	}
	return b
}

// OfferCost prices a loyalty-store offer: its direct ISK cost plus the
// market cost of every required item, with the resulting ISK-per-LP
// efficiency.
func (c *Calculator) OfferCost(ctx context.Context, offer provider.LoyaltyOffer) *OfferBreakdown {
	req := Request{
		ProductTypeID:   offer.TypeID,
		ProductQuantity: offer.Quantity,
		BaseCost:        offer.ISKCost,
	}
	for _, item := range offer.RequiredItems {
		req.Materials = append(req.Materials, Material{TypeID: item.TypeID, Quantity: item.Quantity})
	}

	ob := &OfferBreakdown{
		Breakdown: *c.BuildCost(ctx, req),
		LPCost:    offer.LPCost,
	}
	if ob.Profit != nil && offer.LPCost > 0 {
		perLP := *ob.Profit / float64(offer.LPCost)
		ob.ISKPerLP = &perLP
	}
	return ob
}
