// Package refgraph resolves secondary descriptive attributes (group
// and category) for identifiers through a small cache-backed lookup
// chain over the gated reference API.
package refgraph

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/provider"
)

// Classification describes where an identifier sits in the reference
// graph.
type Classification struct {
	GroupID    int64
	GroupName  string
	CategoryID int64
}

// ReferenceSource provides the two reference lookups.
type ReferenceSource interface {
	TypeInfo(ctx context.Context, typeID int64) (*provider.TypeInfo, error)
	GroupInfo(ctx context.Context, groupID int64) (*provider.GroupInfo, error)
}

// Classifier classifies identifiers with two independent cache layers:
// identifier -> group id, and group id -> group details. Reference
// data is immutable, so neither cache is ever invalidated.
type Classifier struct {
	source     ReferenceSource
	typeCache  *gocache.Cache
	groupCache *gocache.Cache
	logger     zerolog.Logger
}

// NewClassifier creates a classifier over the given reference source.
func NewClassifier(source ReferenceSource, logger zerolog.Logger) *Classifier {
	return &Classifier{
		source:     source,
		typeCache:  gocache.New(gocache.NoExpiration, 0),
		groupCache: gocache.New(gocache.NoExpiration, 0),
		logger:     logger.With().Str("component", "refgraph").Logger(),
	}
}

// Classify resolves the classification for an identifier. A miss at
// either level returns (nil, nil): the item is simply unclassifiable
// and the caller omits it without failing the overall operation.
func (c *Classifier) Classify(ctx context.Context, typeID int64) (*Classification, error) {
	groupID, ok := c.groupIDFor(ctx, typeID)
	if !ok {
		return nil, nil
	}

	group, ok := c.groupFor(ctx, groupID)
	if !ok {
		return nil, nil
	}

	return &Classification{
		GroupID:    group.GroupID,
		GroupName:  group.Name,
		CategoryID: group.CategoryID,
	}, nil
}

// groupIDFor resolves identifier -> group id through the first cache
// layer.
func (c *Classifier) groupIDFor(ctx context.Context, typeID int64) (int64, bool) {
	key := fmt.Sprintf("%d", typeID)
	if v, ok := c.typeCache.Get(key); ok {
		return v.(int64), true
	}

	info, err := c.source.TypeInfo(ctx, typeID)
	if err != nil || info == nil || info.GroupID == 0 {
		c.logger.Debug().Err(err).Int64("type_id", typeID).Msg("Type reference lookup missed")
		return 0, false
	}

	c.typeCache.SetDefault(key, info.GroupID)
	return info.GroupID, true
}

// groupFor resolves group id -> group details through the second cache
// layer.
func (c *Classifier) groupFor(ctx context.Context, groupID int64) (*provider.GroupInfo, bool) {
	key := fmt.Sprintf("%d", groupID)
	if v, ok := c.groupCache.Get(key); ok {
		return v.(*provider.GroupInfo), true
	}

	group, err := c.source.GroupInfo(ctx, groupID)
	if err != nil || group == nil {
		c.logger.Debug().Err(err).Int64("group_id", groupID).Msg("Group reference lookup missed")
		return nil, false
	}

	c.groupCache.SetDefault(key, group)
	return group, true
}
