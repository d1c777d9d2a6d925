// Package resolver resolves free-text item and corporation names into
// numeric identifiers through a layered cache chain: exact-match bulk
// dataset, lookup memo cache, then the gated remote lookup service.
package resolver

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// NameIndex is the bidirectional name/identifier mapping built once at
// startup from the bulk dataset. Read-only after Load; Ready reports
// whether the load has completed so callers can distinguish "not yet
// loaded" from "loaded, no match".
type NameIndex struct {
	byName map[string]int64
	byID   map[int64]string
	ready  atomic.Bool
	logger zerolog.Logger
}

// NewNameIndex creates an empty, not-ready index.
func NewNameIndex(logger zerolog.Logger) *NameIndex {
	return &NameIndex{
		byName: make(map[string]int64),
		byID:   make(map[int64]string),
		logger: logger.With().Str("component", "name-index").Logger(),
	}
}

// Load parses the bulk dataset ("<id> <name>" per line) and flips the
// ready flag. Malformed lines are skipped.
func (ix *NameIndex) Load(data []byte) error {
	if ix.ready.Load() {
		return fmt.Errorf("name index already loaded")
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	loaded := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idStr, name, found := strings.Cut(line, " ")
		if !found {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		ix.byName[strings.ToLower(name)] = id
		// First occurrence wins for the reverse map.
		if _, ok := ix.byID[id]; !ok {
			ix.byID[id] = name
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan dataset: %w", err)
	}

	ix.ready.Store(true)
	ix.logger.Info().Int("entries", loaded).Msg("Name index loaded")
	return nil
}

// Ready reports whether the bulk dataset has been loaded.
func (ix *NameIndex) Ready() bool {
	return ix.ready.Load()
}

// Lookup returns the identifier for a name via exact case-insensitive
// match. Returns false when the index is not ready or has no entry.
func (ix *NameIndex) Lookup(name string) (int64, bool) {
	if !ix.ready.Load() {
		return 0, false
	}
	id, ok := ix.byName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// NameOf returns the proper name for an identifier, or a placeholder
// when the identifier is unknown.
func (ix *NameIndex) NameOf(id int64) string {
	if ix.ready.Load() {
		if name, ok := ix.byID[id]; ok {
			return name
		}
	}
	return fmt.Sprintf("Item (ID: %d)", id)
}
