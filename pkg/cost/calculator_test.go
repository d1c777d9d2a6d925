package cost

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/provider"
)

type stubPrices struct {
	prices map[int64]float64
}

func (s *stubPrices) LowestSell(ctx context.Context, typeID int64) (float64, error) {
	if p, ok := s.prices[typeID]; ok {
		return p, nil
	}
	return 0, errors.New("no price available")
}

type stubNamer struct {
	names map[int64]string
}

func (s *stubNamer) NameOf(typeID int64) string {
	if n, ok := s.names[typeID]; ok {
		return n
	}
	return "Unknown"
}

func newTestCalculator(prices map[int64]float64, names map[int64]string) *Calculator {
	return NewCalculator(&stubPrices{prices: prices}, &stubNamer{names: names}, zerolog.Nop())
}

func TestBuildCost_MissingMaterialSkipped(t *testing.T) {
	calc := newTestCalculator(
		map[int64]float64{101: 10}, // material B (102) has no price
		map[int64]string{101: "Material A", 102: "Material B"},
	)

	b := calc.BuildCost(context.Background(), Request{
		ProductTypeID: 200,
		Materials: []Material{
			{TypeID: 101, Quantity: 2},
			{TypeID: 102, Quantity: 1},
		},
	})

	if b.TotalCost != 20 {
		t.Errorf("Expected TotalCost 20 from priced materials only, got %v", b.TotalCost)
	}
	if len(b.MissingMaterials) != 1 || b.MissingMaterials[0] != "Material B" {
		t.Errorf("Expected Material B missing, got %v", b.MissingMaterials)
	}
	if len(b.Items) != 1 || b.Items[0].Total != 20 {
		t.Errorf("Unexpected priced items: %+v", b.Items)
	}
	if b.SellValue != nil || b.Profit != nil {
		t.Errorf("Expected nil SellValue/Profit with unpriced product, got %v / %v", b.SellValue, b.Profit)
	}
	if math.IsNaN(b.TotalCost) {
		t.Error("TotalCost must never be NaN")
	}
}

func TestBuildCost_ProfitFromProductPrice(t *testing.T) {
	calc := newTestCalculator(
		map[int64]float64{101: 10, 200: 100},
		map[int64]string{101: "Material A"},
	)

	b := calc.BuildCost(context.Background(), Request{
		ProductTypeID:   200,
		ProductQuantity: 2,
		BaseCost:        50,
		Materials:       []Material{{TypeID: 101, Quantity: 3}},
	})

	if b.TotalCost != 80 {
		t.Errorf("Expected TotalCost 80 (50 base + 30 materials), got %v", b.TotalCost)
	}
	if b.SellValue == nil || *b.SellValue != 200 {
		t.Errorf("Expected SellValue 200, got %v", b.SellValue)
	}
	if b.Profit == nil || *b.Profit != 120 {
		t.Errorf("Expected Profit 120, got %v", b.Profit)
	}
}

func TestBuildCost_MaterialNameFallsBackToNamer(t *testing.T) {
	calc := newTestCalculator(nil, map[int64]string{102: "Resolved Name"})

	b := calc.BuildCost(context.Background(), Request{
		ProductTypeID: 200,
		Materials:     []Material{{TypeID: 102, Quantity: 1}},
	})

	if len(b.MissingMaterials) != 1 || b.MissingMaterials[0] != "Resolved Name" {
		t.Errorf("Expected namer-resolved missing material, got %v", b.MissingMaterials)
	}
}

func TestOfferCost_ISKPerLP(t *testing.T) {
	calc := newTestCalculator(
		map[int64]float64{300: 1000, 101: 10},
		map[int64]string{101: "Datacore"},
	)

	ob := calc.OfferCost(context.Background(), provider.LoyaltyOffer{
		OfferID:       1,
		TypeID:        300,
		Quantity:      1,
		LPCost:        100,
		ISKCost:       200,
		RequiredItems: []provider.RequiredItem{{TypeID: 101, Quantity: 5}},
	})

	// 1000 sell - (200 isk + 50 materials) = 750 profit over 100 LP.
	if ob.TotalCost != 250 {
		t.Errorf("Expected TotalCost 250, got %v", ob.TotalCost)
	}
	if ob.ISKPerLP == nil || *ob.ISKPerLP != 7.5 {
		t.Errorf("Expected 7.5 ISK/LP, got %v", ob.ISKPerLP)
	}
}

func TestOfferCost_NoLPCostNoEfficiency(t *testing.T) {
	calc := newTestCalculator(map[int64]float64{300: 1000}, nil)

	ob := calc.OfferCost(context.Background(), provider.LoyaltyOffer{
		TypeID: 300, Quantity: 1, LPCost: 0, ISKCost: 100,
	})

	if ob.ISKPerLP != nil {
		t.Errorf("Expected nil ISKPerLP for zero-LP offer, got %v", *ob.ISKPerLP)
	}
}

func TestUnavailableRecipeSource(t *testing.T) {
	var src RecipeProvider = UnavailableRecipeSource{}
	if _, err := src.Recipe(context.Background(), 587); !errors.Is(err, ErrRecipeUnavailable) {
		t.Errorf("Expected ErrRecipeUnavailable, got %v", err)
	}
}
