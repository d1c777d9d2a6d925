package refgraph

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/provider"
)

type stubSource struct {
	mu         sync.Mutex
	typeCalls  int
	groupCalls int
	types      map[int64]*provider.TypeInfo
	groups     map[int64]*provider.GroupInfo
}

func (s *stubSource) TypeInfo(ctx context.Context, typeID int64) (*provider.TypeInfo, error) {
	s.mu.Lock()
	s.typeCalls++
	s.mu.Unlock()
	if t, ok := s.types[typeID]; ok {
		return t, nil
	}
	return nil, provider.ErrNotFound
}

func (s *stubSource) GroupInfo(ctx context.Context, groupID int64) (*provider.GroupInfo, error) {
	s.mu.Lock()
	s.groupCalls++
	s.mu.Unlock()
	if g, ok := s.groups[groupID]; ok {
		return g, nil
	}
	return nil, provider.ErrNotFound
}

func frigateSource() *stubSource {
	return &stubSource{
		types: map[int64]*provider.TypeInfo{
			587: {TypeID: 587, Name: "Rifter", GroupID: 25},
			588: {TypeID: 588, Name: "Slasher", GroupID: 25},
		},
		groups: map[int64]*provider.GroupInfo{
			25: {GroupID: 25, Name: "Frigate", CategoryID: 6},
		},
	}
}

func TestClassify(t *testing.T) {
	src := frigateSource()
	c := NewClassifier(src, zerolog.Nop())

	cls, err := c.Classify(context.Background(), 587)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if cls == nil {
		t.Fatal("Expected classification, got nil")
	}
	if cls.GroupName != "Frigate" || cls.CategoryID != 6 {
		t.Errorf("Unexpected classification: %+v", cls)
	}
}

func TestClassify_CachesBothLayers(t *testing.T) {
	src := frigateSource()
	c := NewClassifier(src, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := c.Classify(context.Background(), 587); err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
	}
	if src.typeCalls != 1 {
		t.Errorf("Expected 1 type lookup, got %d", src.typeCalls)
	}
	if src.groupCalls != 1 {
		t.Errorf("Expected 1 group lookup, got %d", src.groupCalls)
	}

	// A sibling type in the same group reuses the group layer.
	if _, err := c.Classify(context.Background(), 588); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if src.typeCalls != 2 {
		t.Errorf("Expected 2 type lookups, got %d", src.typeCalls)
	}
	if src.groupCalls != 1 {
		t.Errorf("Group layer should be shared, got %d lookups", src.groupCalls)
	}
}

func TestClassify_MissShortCircuits(t *testing.T) {
	src := frigateSource()
	c := NewClassifier(src, zerolog.Nop())

	// Unknown identifier: nil classification, no error.
	cls, err := c.Classify(context.Background(), 99999)
	if err != nil {
		t.Fatalf("Classify returned error on miss: %v", err)
	}
	if cls != nil {
		t.Errorf("Expected nil classification, got %+v", cls)
	}

	// Known type whose group is unknown: also a clean nil.
	src.types[700] = &provider.TypeInfo{TypeID: 700, GroupID: 777}
	cls, err = c.Classify(context.Background(), 700)
	if err != nil || cls != nil {
		t.Errorf("Expected nil/nil for unknown group, got %+v, %v", cls, err)
	}
}
