// Package recipe implements the recipe catalog: recipes, tags and ingredients,
// each owned by exactly one user, with many-to-many links from recipes to tags
// and ingredients. All operations are owner-scoped: a query made on behalf of
// one user can never observe or mutate another user's rows.
package recipe

import (
	"fmt"

	"github.com/user/recipebox-go/apperror"
)

// Tag labels recipes for filtering. (owner, name) is its natural key: the
// reconciliation logic reuses an existing row with the same name under the
// same owner instead of creating a duplicate.
type Tag struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	UserID int    `json:"-"`
}

// Ingredient is structurally identical to Tag and follows the same natural-key
// contract.
type Ingredient struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	UserID int    `json:"-"`
}

// RecipeSummary is the representation used when listing recipes. Price is a
// fixed-point decimal transported as a string so monetary values never pass
// through binary floating point.
type RecipeSummary struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	TimeMinutes int          `json:"time_minutes"`
	Price       string       `json:"price"`
	Link        string       `json:"link"`
	Tags        []Tag        `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
}

// RecipeDetail is the representation used for everything except listing. It is
// the summary plus the long-form description and nothing else; embedding the
// summary keeps the two shapes from diverging.
type RecipeDetail struct {
	RecipeSummary
	Description string `json:"description"`
}

// NameDescriptor is an open field set describing a nested tag or ingredient in
// a recipe payload. Only "name" is interpreted today; any additional fields
// pass through the reconciliation call site untouched, so growing the tag
// schema does not require changing it.
type NameDescriptor map[string]interface{}

// Name returns the descriptor's name field, validating that it is a non-empty
// string.
func (d NameDescriptor) Name() (string, error) {
	raw, ok := d["name"]
	if !ok {
		return "", apperror.NewValidationError("descriptor is missing required field 'name'", nil)
	}
	name, ok := raw.(string)
	if !ok {
		return "", apperror.NewValidationError(fmt.Sprintf("descriptor field 'name' must be a string, got %T", raw), nil)
	}
	if name == "" {
		return "", apperror.NewValidationError("descriptor field 'name' must not be empty", nil)
	}
	if len(name) > 255 {
		return "", apperror.NewValidationError("descriptor field 'name' must be at most 255 characters", nil)
	}
	return name, nil
}

// descriptorNames validates a list of descriptors up front and returns their
// names, so a bad descriptor is caught before any row is written.
func descriptorNames(descriptors []NameDescriptor) ([]string, error) {
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		name, err := d.Name()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
