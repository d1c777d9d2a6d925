package provider

import "encoding/json"

// OrderSide selects one side of a market order book.
type OrderSide string

const (
	// SideBuy selects buy orders.
	SideBuy OrderSide = "buy"

	// SideSell selects sell orders.
	SideSell OrderSide = "sell"
)

// Order is a single market order as returned by the order-book query.
type Order struct {
	OrderID      int64   `json:"order_id"`
	TypeID       int64   `json:"type_id"`
	LocationID   int64   `json:"location_id"`
	SystemID     int64   `json:"system_id"`
	VolumeRemain int64   `json:"volume_remain"`
	MinVolume    int64   `json:"min_volume"`
	Price        float64 `json:"price"`
	IsBuyOrder   bool    `json:"is_buy_order"`
}

// TypeInfo is the reference record for one item type.
type TypeInfo struct {
	TypeID  int64  `json:"type_id"`
	Name    string `json:"name"`
	GroupID int64  `json:"group_id"`
}

// GroupInfo is the reference record for one item group.
type GroupInfo struct {
	GroupID    int64  `json:"group_id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

// RequiredItem is one material line of a loyalty offer.
type RequiredItem struct {
	TypeID   int64 `json:"type_id"`
	Quantity int64 `json:"quantity"`
}

// LoyaltyOffer is a single loyalty-store offer.
type LoyaltyOffer struct {
	OfferID       int64          `json:"offer_id"`
	TypeID        int64          `json:"type_id"`
	Quantity      int64          `json:"quantity"`
	LPCost        int64          `json:"lp_cost"`
	ISKCost       float64        `json:"isk_cost"`
	RequiredItems []RequiredItem `json:"required_items"`
}

// typeIDCandidate is one entry of the name-lookup response. TypeID is
// a json.Number because the service emits it as a string in some
// responses and as a number in others.
type typeIDCandidate struct {
	TypeID   json.Number `json:"typeID"`
	TypeName string      `json:"typeName"`
}
