package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/internal/testutil"
	"github.com/rustybot/rustybot/pkg/gate"
)

func testClient(t *testing.T, mock *testutil.MockProvider) *Client {
	t.Helper()

	g, err := gate.New(gate.Config{
		Name:          "provider-test",
		MinInterval:   time.Millisecond,
		MaxConcurrent: 2,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("gate.New failed: %v", err)
	}

	c, err := New(Config{
		UserAgent:     "RustyBot/1.0.0 (test@example.com)",
		MarketBaseURL: mock.URL(),
		LookupBaseURL: mock.URL(),
		DatasetURL:    mock.URL() + "/typeid.txt",
	}, g, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	g, _ := gate.New(gate.Config{Name: "g", MinInterval: time.Millisecond, MaxConcurrent: 1}, zerolog.Nop())

	if _, err := New(Config{}, g, zerolog.Nop()); err == nil {
		t.Error("Expected error for missing user-agent")
	}
	if _, err := New(Config{UserAgent: "x"}, nil, zerolog.Nop()); err == nil {
		t.Error("Expected error for missing gate")
	}
}

func TestLookupTypeID_SingleObject(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/typeid.php", testutil.NewJSONResponse(`{"typeID": 34, "typeName": "Tritanium"}`))

	c := testClient(t, mock)
	id, err := c.LookupTypeID(context.Background(), "Tritanium")
	if err != nil {
		t.Fatalf("LookupTypeID failed: %v", err)
	}
	if id != 34 {
		t.Errorf("Expected typeID 34, got %d", id)
	}
}

func TestLookupTypeID_ArrayPrefersExactMatch(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/typeid.php", testutil.NewJSONResponse(
		`[{"typeID": 11184, "typeName": "Crusader"}, {"typeID": 603, "typeName": "Merlin"}]`))

	c := testClient(t, mock)

	// Exact (case-insensitive) match wins over relevance order.
	id, err := c.LookupTypeID(context.Background(), "merlin")
	if err != nil {
		t.Fatalf("LookupTypeID failed: %v", err)
	}
	if id != 603 {
		t.Errorf("Expected exact match 603, got %d", id)
	}

	// No exact match: first candidate wins.
	id, err = c.LookupTypeID(context.Background(), "cruiser hull")
	if err != nil {
		t.Fatalf("LookupTypeID failed: %v", err)
	}
	if id != 11184 {
		t.Errorf("Expected first candidate 11184, got %d", id)
	}
}

func TestLookupTypeID_EmptyArray(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/typeid.php", testutil.NewJSONResponse(`[]`))

	c := testClient(t, mock)
	_, err := c.LookupTypeID(context.Background(), "No Such Item")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLookupTypeID_ServerErrorDegrades(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/typeid.php", testutil.NewServerErrorResponse())

	c := testClient(t, mock)
	_, err := c.LookupTypeID(context.Background(), "Tritanium")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected degraded ErrNotFound, got %v", err)
	}
}

func TestMarketOrders_AttachesUserAgent(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/markets/10000002/orders/", testutil.NewJSONResponse(
		`[{"order_id": 1, "type_id": 34, "system_id": 30000142, "price": 5.5, "volume_remain": 100, "is_buy_order": false}]`))

	c := testClient(t, mock)
	orders, err := c.MarketOrders(context.Background(), 10000002, SideSell, 34)
	if err != nil {
		t.Fatalf("MarketOrders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(orders))
	}
	if orders[0].Price != 5.5 {
		t.Errorf("Expected price 5.5, got %f", orders[0].Price)
	}

	if ua := mock.LastRequestHeader.Get("User-Agent"); ua != "RustyBot/1.0.0 (test@example.com)" {
		t.Errorf("Expected identifying User-Agent on every request, got %q", ua)
	}
}

func TestMarketOrders_NotFound(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/markets/10000002/orders/", testutil.NewNotFoundResponse())

	c := testClient(t, mock)
	_, err := c.MarketOrders(context.Background(), 10000002, SideSell, 34)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for 404, got %v", err)
	}

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if perr.Class != ErrorClassClient {
		t.Errorf("Expected client error class, got %s", perr.Class)
	}
}

func TestMarketOrders_ServerErrorIsUnavailable(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/markets/10000002/orders/", testutil.NewServerErrorResponse())

	c := testClient(t, mock)
	_, err := c.MarketOrders(context.Background(), 10000002, SideSell, 34)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable for 500, got %v", err)
	}
}

func TestLoyaltyOffers(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/loyalty/stores/1000130/offers/", testutil.NewJSONResponse(
		`[{"offer_id": 10, "type_id": 17715, "quantity": 1, "lp_cost": 60000, "isk_cost": 60000000,
		   "required_items": [{"type_id": 17716, "quantity": 2}]}]`))

	c := testClient(t, mock)
	offers, err := c.LoyaltyOffers(context.Background(), 1000130)
	if err != nil {
		t.Fatalf("LoyaltyOffers failed: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("Expected 1 offer, got %d", len(offers))
	}
	if offers[0].LPCost != 60000 {
		t.Errorf("Expected lp_cost 60000, got %d", offers[0].LPCost)
	}
	if len(offers[0].RequiredItems) != 1 || offers[0].RequiredItems[0].Quantity != 2 {
		t.Errorf("Required items not decoded: %+v", offers[0].RequiredItems)
	}
}

func TestTypeAndGroupInfo(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/universe/types/587/", testutil.NewJSONResponse(
		`{"type_id": 587, "name": "Rifter", "group_id": 25}`))
	mock.SetResponse("/universe/groups/25/", testutil.NewJSONResponse(
		`{"group_id": 25, "name": "Frigate", "category_id": 6}`))

	c := testClient(t, mock)

	ti, err := c.TypeInfo(context.Background(), 587)
	if err != nil {
		t.Fatalf("TypeInfo failed: %v", err)
	}
	if ti.GroupID != 25 {
		t.Errorf("Expected group 25, got %d", ti.GroupID)
	}

	gi, err := c.GroupInfo(context.Background(), 25)
	if err != nil {
		t.Fatalf("GroupInfo failed: %v", err)
	}
	if gi.CategoryID != 6 || gi.Name != "Frigate" {
		t.Errorf("Unexpected group info: %+v", gi)
	}
}

func TestFetchTypeDataset(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.SetResponse("/typeid.txt", testutil.MockResponse{
		StatusCode: 200,
		Body:       "34 Tritanium\n35 Pyerite\n",
	})

	c := testClient(t, mock)
	data, err := c.FetchTypeDataset(context.Background())
	if err != nil {
		t.Fatalf("FetchTypeDataset failed: %v", err)
	}
	if string(data) != "34 Tritanium\n35 Pyerite\n" {
		t.Errorf("Unexpected dataset body: %q", data)
	}
}
