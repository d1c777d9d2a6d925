// Package cost prices multi-input acquisition paths: manufacturing
// recipes and loyalty-store offers, with per-input price resolution and
// explicit partial results.
package cost

import (
	"context"
	"errors"
)

// ErrRecipeUnavailable indicates no recipe data source is wired, so
// build costs cannot be computed and callers should present alternative
// references instead.
var ErrRecipeUnavailable = errors.New("recipe data unavailable")

// Recipe is one manufacturing recipe: the product and the materials a
// single run consumes.
type Recipe struct {
	ProductTypeID int64
	Materials     []Material
}

// Material is one recipe input.
type Material struct {
	TypeID   int64
	Name     string
	Quantity int64
}

// RecipeProvider resolves the recipe that produces a type.
type RecipeProvider interface {
	Recipe(ctx context.Context, productTypeID int64) (*Recipe, error)
}

// UnavailableRecipeSource is the placeholder provider used while no
// static recipe dataset is wired in. Every lookup reports
// ErrRecipeUnavailable.
type UnavailableRecipeSource struct{}

// Recipe always fails with ErrRecipeUnavailable.
func (UnavailableRecipeSource) Recipe(ctx context.Context, productTypeID int64) (*Recipe, error) {
	return nil, ErrRecipeUnavailable
}
