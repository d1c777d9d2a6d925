// Package market aggregates order-book data across independent trading
// venues, merging per-market best-bid/best-ask results and tolerating
// per-market failure.
package market

// Well-known identifiers of the external universe.
const (
	// PLEXTypeID trades in a single global venue instead of per-hub
	// regional markets.
	PLEXTypeID = 44992

	// GlobalPLEXRegionID is the global PLEX market region.
	GlobalPLEXRegionID = 19000001

	JitaRegionID    = 10000002
	AmarrRegionID   = 10000043
	DodixieRegionID = 10000032
	HekRegionID     = 10000042
	RensRegionID    = 10000030

	JitaSystemID = 30000142
)

// Market is a named trading venue. SystemID, when non-zero, restricts
// aggregation to orders at that hub; the global venue is never
// filtered.
type Market struct {
	Name     string
	RegionID int64
	SystemID int64
}

// ScopeKind tags the aggregation variant.
type ScopeKind int

const (
	// KindPerRegion queries a set of regional markets.
	KindPerRegion ScopeKind = iota

	// KindGlobal queries one region-wide global venue, unfiltered.
	KindGlobal
)

// Scope selects which markets an aggregation request covers.
type Scope struct {
	Kind    ScopeKind
	Markets []Market
}

// PerRegion builds a multi-market regional scope.
func PerRegion(markets ...Market) Scope {
	return Scope{Kind: KindPerRegion, Markets: markets}
}

// Global builds a single-venue global scope.
func Global(m Market) Scope {
	return Scope{Kind: KindGlobal, Markets: []Market{m}}
}

// TradeHubs returns the default per-region scope covering the major
// trade hub regions. Hub aggregation is region-wide, matching how the
// hubs are browsed in practice.
func TradeHubs() Scope {
	return PerRegion(
		Market{Name: "Jita", RegionID: JitaRegionID},
		Market{Name: "Amarr", RegionID: AmarrRegionID},
		Market{Name: "Dodixie", RegionID: DodixieRegionID},
		Market{Name: "Hek", RegionID: HekRegionID},
		Market{Name: "Rens", RegionID: RensRegionID},
	)
}

// GlobalPLEX returns the global PLEX venue scope.
func GlobalPLEX() Scope {
	return Global(Market{Name: "Global", RegionID: GlobalPLEXRegionID})
}

// ScopeFor picks the aggregation scope for an identifier: the global
// venue for PLEX, the trade hubs otherwise.
func ScopeFor(typeID int64) Scope {
	if typeID == PLEXTypeID {
		return GlobalPLEX()
	}
	return TradeHubs()
}

// PricingMarket returns the single venue used for price resolution in
// cost calculations: the Jita hub (system-filtered), or the global
// venue for PLEX.
func PricingMarket(typeID int64) (Market, ScopeKind) {
	if typeID == PLEXTypeID {
		return Market{Name: "Global", RegionID: GlobalPLEXRegionID}, KindGlobal
	}
	return Market{Name: "Jita", RegionID: JitaRegionID, SystemID: JitaSystemID}, KindPerRegion
}
