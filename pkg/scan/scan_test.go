package scan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/provider"
	"github.com/rustybot/rustybot/pkg/refgraph"
)

type stubRefSource struct {
	types  map[int64]*provider.TypeInfo
	groups map[int64]*provider.GroupInfo
}

func (s *stubRefSource) TypeInfo(ctx context.Context, typeID int64) (*provider.TypeInfo, error) {
	if t, ok := s.types[typeID]; ok {
		return t, nil
	}
	return nil, provider.ErrNotFound
}

func (s *stubRefSource) GroupInfo(ctx context.Context, groupID int64) (*provider.GroupInfo, error) {
	if g, ok := s.groups[groupID]; ok {
		return g, nil
	}
	return nil, provider.ErrNotFound
}

func TestParse_CountsDuplicates(t *testing.T) {
	input := "587\tRifter\tRifter\t12 km\n" +
		"587\tRifter's Wrath\tRifter\t- \n" +
		"588\tSlasher\tSlasher\t3,021 m\n"

	result, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Counts["Rifter"] != 2 {
		t.Errorf("Expected 2 Rifters, got %d", result.Counts["Rifter"])
	}
	if result.Counts["Slasher"] != 1 {
		t.Errorf("Expected 1 Slasher, got %d", result.Counts["Slasher"])
	}
	if result.TypeIDs["Rifter"] != 587 {
		t.Errorf("Expected first-seen id 587, got %d", result.TypeIDs["Rifter"])
	}
}

func TestParse_ZeroValidLinesIsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no tabs", "Rifter 12km\nSlasher 3km"},
		{"too few fields", "587\tRifter"},
		{"non-numeric id", "abc\tRifter\tRifter\t12 km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestAnalyze_GroupsByCategory(t *testing.T) {
	src := &stubRefSource{
		types: map[int64]*provider.TypeInfo{
			587:   {TypeID: 587, GroupID: 25},    // frigate
			622:   {TypeID: 622, GroupID: 26},    // cruiser
			2456:  {TypeID: 2456, GroupID: 100},  // drone
			99999: {TypeID: 99999, GroupID: 500}, // structure, ignored
		},
		groups: map[int64]*provider.GroupInfo{
			25:  {GroupID: 25, Name: "Frigate", CategoryID: CategoryShip},
			26:  {GroupID: 26, Name: "Cruiser", CategoryID: CategoryShip},
			100: {GroupID: 100, Name: "Combat Drone", CategoryID: CategoryDrone},
			500: {GroupID: 500, Name: "Deployable", CategoryID: 22},
		},
	}
	analyzer := NewAnalyzer(refgraph.NewClassifier(src, zerolog.Nop()), zerolog.Nop())

	result := &ScanResult{
		Counts: map[string]int{
			"Rifter":       2,
			"Caracal":      1,
			"Hobgoblin II": 5,
			"Depot":        1,
			"Mystery":      1,
		},
		TypeIDs: map[string]int64{
			"Rifter":       587,
			"Caracal":      622,
			"Hobgoblin II": 2456,
			"Depot":        99999,
			"Mystery":      12345, // unclassifiable, must be omitted
		},
	}

	report := analyzer.Analyze(context.Background(), result)

	if report.TotalShips != 3 {
		t.Errorf("Expected 3 ships total, got %d", report.TotalShips)
	}
	if got := report.GroupNames(); len(got) != 2 || got[0] != "Cruiser" || got[1] != "Frigate" {
		t.Errorf("Unexpected ship groups: %v", got)
	}
	if len(report.Other) != 1 || report.Other[0].Name != "Hobgoblin II" || report.Other[0].Count != 5 {
		t.Errorf("Unexpected drones/fighters bucket: %+v", report.Other)
	}
}

func TestReport_RenderText(t *testing.T) {
	report := &Report{
		ShipGroups: map[string][]Entry{
			"Frigate": {{Name: "Rifter", Count: 2}},
		},
		Other:      []Entry{{Name: "Hobgoblin II", Count: 5}},
		TotalShips: 2,
	}

	text := report.RenderText()
	for _, want := range []string{
		"--- Frigate ---",
		"  2 x Rifter",
		"--- Drones & Fighters ---",
		"  5 x Hobgoblin II",
		"Total Ships: 2",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("RenderText missing %q:\n%s", want, text)
		}
	}
}
