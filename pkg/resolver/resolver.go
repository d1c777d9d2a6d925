package resolver

import (
	"context"
	"errors"
	"regexp"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound indicates no identifier could be resolved for a name
// after exhausting every layer of the chain.
var ErrNotFound = errors.New("no identifier found")

// remoteSanitize strips characters the lookup service chokes on.
// Applied only to the remote attempt, never to cache keys.
var remoteSanitize = regexp.MustCompile(`[^a-zA-Z0-9\s'-]`)

// Lookup is the remote name-lookup dependency.
type Lookup interface {
	LookupTypeID(ctx context.Context, name string) (int64, error)
}

// Resolver resolves names through the layered chain, short-circuiting
// on the first hit: exact index match, memo cache, remote lookup.
type Resolver struct {
	index  *NameIndex
	memo   *gocache.Cache
	remote Lookup
	sf     singleflight.Group
	logger zerolog.Logger
}

// New creates a resolver over the given index and remote lookup.
func New(index *NameIndex, remote Lookup, logger zerolog.Logger) *Resolver {
	return &Resolver{
		index: index,
		// Identifiers are stable per name, so memoized entries never
		// expire; the universe's identifier space bounds the map.
		memo:   gocache.New(gocache.NoExpiration, 0),
		remote: remote,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve resolves a free-text name to an identifier. Successful
// remote lookups are memoized under the lower-cased original name;
// NotFound is never memoized because the condition may be transient.
func (r *Resolver) Resolve(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrNotFound
	}
	key := strings.ToLower(name)

	// Layer 1: exact dataset match, no I/O.
	if id, ok := r.index.Lookup(name); ok {
		r.logger.Debug().Str("name", name).Int64("type_id", id).Msg("Index hit")
		return id, nil
	}

	// Layer 2: memoized earlier remote result, no I/O.
	if v, ok := r.memo.Get(key); ok {
		id := v.(int64)
		r.logger.Debug().Str("name", name).Int64("type_id", id).Msg("Memo hit")
		return id, nil
	}

	// Layer 3: remote lookup. Duplicate concurrent resolutions of the
	// same name collapse into one upstream call.
	v, err, _ := r.sf.Do(key, func() (any, error) {
		clean := strings.TrimSpace(remoteSanitize.ReplaceAllString(name, ""))
		if clean == "" {
			return int64(0), ErrNotFound
		}

		id, err := r.remote.LookupTypeID(ctx, clean)
		if err != nil {
			r.logger.Debug().Err(err).Str("name", name).Msg("Remote lookup missed")
			return int64(0), ErrNotFound
		}

		r.memo.SetDefault(key, id)
		r.logger.Info().Str("name", name).Int64("type_id", id).Msg("Resolved via remote lookup")
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// NameOf returns the display name for an identifier.
func (r *Resolver) NameOf(id int64) string {
	return r.index.NameOf(id)
}

// Ready reports whether the exact-match layer is available.
func (r *Resolver) Ready() bool {
	return r.index.Ready()
}
