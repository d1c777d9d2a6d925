package resolver

import "strings"

// corporationIDs maps loyalty-store corporation names to their
// identifiers. The set is static: loyalty stores belong to a fixed
// roster of NPC corporations.
var corporationIDs = map[string]int64{
	"Sisters of EVE":          1000130,
	"Federation Navy":         1000017,
	"Republic Fleet":          1000048,
	"Imperial Navy":           1000051,
	"Caldari Navy":            1000020,
	"Concord":                 1000147,
	"Inner Zone Shipping":     1000080,
	"Ishukone Corporation":    1000045,
	"Lai Dai Corporation":     1000016,
	"Hyasyoda Corporation":    1000115,
	"ORE":                     1000109,
	"24th Imperial Crusade":   1000180,
	"Federal Defense Union":   1000181,
	"Tribal Liberation Force": 1000182,
	"State Protectorate":      1000183,
}

// ResolveCorp resolves a corporation name to its identifier: exact
// match first, then substring containment in either direction.
func ResolveCorp(name string) (int64, bool) {
	if id, ok := corporationIDs[name]; ok {
		return id, true
	}

	search := strings.ToLower(strings.TrimSpace(name))
	if search == "" {
		return 0, false
	}
	for corp, id := range corporationIDs {
		lower := strings.ToLower(corp)
		if strings.Contains(lower, search) || strings.Contains(search, lower) {
			return id, true
		}
	}
	return 0, false
}

// CorpNames returns the known corporation names, for suggestion lists.
func CorpNames() []string {
	names := make([]string, 0, len(corporationIDs))
	for name := range corporationIDs {
		names = append(names, name)
	}
	return names
}
