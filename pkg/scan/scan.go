// Package scan parses directional-scan pastes and groups the results
// into named categories using the reference graph.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/refgraph"
)

// ErrMalformed indicates the paste contained no parseable lines.
// Zero parsed items is a reportable outcome, not an empty success.
var ErrMalformed = errors.New("could not parse any items from the input; paste the scan window content unmodified")

// Reference-graph categories the report cares about.
const (
	CategoryShip    = 6
	CategoryDrone   = 18
	CategoryFighter = 87
)

// ScanResult holds the parsed line counts of one paste. Transient:
// never cached beyond the parse invocation.
type ScanResult struct {
	// Counts maps type name to the number of scan lines naming it.
	Counts map[string]int

	// TypeIDs maps type name to its identifier (first occurrence wins).
	TypeIDs map[string]int64
}

// Parse splits a scan paste into per-type counts. Lines are
// tab-delimited with the identifier in the first field and the type
// name in the third; anything else is skipped.
func Parse(text string) (*ScanResult, error) {
	result := &ScanResult{
		Counts:  make(map[string]int),
		TypeIDs: make(map[string]int64),
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		typeID, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			continue
		}
		typeName := strings.TrimSpace(parts[2])
		if typeName == "" {
			continue
		}

		result.Counts[typeName]++
		if _, ok := result.TypeIDs[typeName]; !ok {
			result.TypeIDs[typeName] = typeID
		}
	}

	if len(result.Counts) == 0 {
		return nil, ErrMalformed
	}
	return result, nil
}

// Entry is one type with its scan count.
type Entry struct {
	Name  string
	Count int
}

// Report is a categorized scan analysis.
type Report struct {
	// ShipGroups maps group name (e.g. "Frigate") to its entries,
	// sorted by name.
	ShipGroups map[string][]Entry

	// Other holds drones and fighters, sorted by name.
	Other []Entry

	// TotalShips is the sum of counts across all ship groups.
	TotalShips int
}

// Analyzer groups parsed scan results by classification.
type Analyzer struct {
	classifier *refgraph.Classifier
	logger     zerolog.Logger
}

// NewAnalyzer creates an analyzer over the given classifier.
func NewAnalyzer(classifier *refgraph.Classifier, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		logger:     logger.With().Str("component", "scan").Logger(),
	}
}

// Analyze classifies every unique identifier concurrently and groups
// ships by group name, drones and fighters into one shared bucket.
// Items that cannot be classified are omitted; a failed branch never
// aborts its siblings.
func (a *Analyzer) Analyze(ctx context.Context, result *ScanResult) *Report {
	report := &Report{ShipGroups: make(map[string][]Entry)}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for typeName, typeID := range result.TypeIDs {
		wg.Add(1)
		go func(typeName string, typeID int64) {
			defer wg.Done()

			cls, err := a.classifier.Classify(ctx, typeID)
			if err != nil || cls == nil {
				return
			}
			count := result.Counts[typeName]

			mu.Lock()
			defer mu.Unlock()
			switch cls.CategoryID {
			case CategoryShip:
				report.ShipGroups[cls.GroupName] = append(report.ShipGroups[cls.GroupName], Entry{Name: typeName, Count: count})
				report.TotalShips += count
			case CategoryDrone, CategoryFighter:
				report.Other = append(report.Other, Entry{Name: typeName, Count: count})
			}
		}(typeName, typeID)
	}
	wg.Wait()

	for _, entries := range report.ShipGroups {
		sortEntries(entries)
	}
	sortEntries(report.Other)

	return report
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

// GroupNames returns the ship group names in sorted order.
func (r *Report) GroupNames() []string {
	names := make([]string, 0, len(r.ShipGroups))
	for name := range r.ShipGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RenderText renders the raw-text form of the report, suitable for the
// copy-to-clipboard session payload.
func (r *Report) RenderText() string {
	var b strings.Builder
	b.WriteString("--- D-Scan Analysis ---\n\n")

	for _, group := range r.GroupNames() {
		fmt.Fprintf(&b, "--- %s ---\n", group)
		for _, e := range r.ShipGroups[group] {
			fmt.Fprintf(&b, "%3d x %s\n", e.Count, e.Name)
		}
		b.WriteString("\n")
	}

	if len(r.Other) > 0 {
		b.WriteString("--- Drones & Fighters ---\n")
		for _, e := range r.Other {
			fmt.Fprintf(&b, "%3d x %s\n", e.Count, e.Name)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "--- Summary ---\nTotal Ships: %d\n", r.TotalShips)
	return b.String()
}
