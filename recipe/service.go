// Business logic for the recipe catalog. Every method takes the authenticated
// user's id and scopes each SQL statement with it; recipe writes that carry
// nested tag/ingredient descriptors run inside one transaction so a failure
// partway through leaves no partial recipe or dangling links behind.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/recipebox-go/apperror"
)

// RecipeService defines the operations of the recipe catalog. Each entity type
// supports an explicit set of operations: recipes full CRUD, tags list/update/
// delete, ingredients list only.
type RecipeService interface {
	ListRecipes(ctx context.Context, userID int) ([]RecipeSummary, error)
	GetRecipe(ctx context.Context, userID, recipeID int) (*RecipeDetail, error)
	CreateRecipe(ctx context.Context, userID int, req CreateRecipeRequest) (*RecipeDetail, error)
	UpdateRecipe(ctx context.Context, userID, recipeID int, req UpdateRecipeRequest) (*RecipeDetail, error)
	DeleteRecipe(ctx context.Context, userID, recipeID int) error

	ListTags(ctx context.Context, userID int) ([]Tag, error)
	UpdateTag(ctx context.Context, userID, tagID int, req UpdateTagRequest) (*Tag, error)
	DeleteTag(ctx context.Context, userID, tagID int) error

	ListIngredients(ctx context.Context, userID int) ([]Ingredient, error)
}

// recipeServiceImpl is the pgx-backed implementation of RecipeService.
type recipeServiceImpl struct {
	db *pgxpool.Pool
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(db *pgxpool.Pool) RecipeService {
	return &recipeServiceImpl{db: db}
}

// dbtx is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx, so
// the read helpers can run either inside or outside a transaction.
type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// catalogKind identifies one of the two structurally identical nested entity
// tables (tags, ingredients) and its recipe link table. Tag and ingredient
// reconciliation differ only by these names.
type catalogKind struct {
	table      string
	linkTable  string
	linkColumn string
}

var (
	tagKind        = catalogKind{table: "tags", linkTable: "recipe_tags", linkColumn: "tag_id"}
	ingredientKind = catalogKind{table: "ingredients", linkTable: "recipe_ingredients", linkColumn: "ingredient_id"}
)

// --- Recipes ---

// ListRecipes returns all recipes owned by the user, most recently created
// first. The ordering is a stated contract, not incidental: callers rely on
// it being stable across repeated calls.
func (s *recipeServiceImpl) ListRecipes(ctx context.Context, userID int) ([]RecipeSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, time_minutes, price::text, link
		FROM recipes
		WHERE user_id = $1
		ORDER BY id DESC`, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list recipes", err)
	}
	defer rows.Close()

	summaries := []RecipeSummary{}
	ids := []int{}
	for rows.Next() {
		var rec RecipeSummary
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.TimeMinutes, &rec.Price, &rec.Link); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe row", err)
		}
		summaries = append(summaries, rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate recipe rows", err)
	}

	tagsByRecipe, err := s.loadLinkedTags(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	ingredientsByRecipe, err := s.loadLinkedIngredients(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].Tags = tagsByRecipe[summaries[i].ID]
		summaries[i].Ingredients = ingredientsByRecipe[summaries[i].ID]
	}

	return summaries, nil
}

// GetRecipe returns the detail representation of a single recipe in the
// user's scope. A recipe owned by someone else is reported as not found, never
// as forbidden: the existence of another user's row must not be observable.
func (s *recipeServiceImpl) GetRecipe(ctx context.Context, userID, recipeID int) (*RecipeDetail, error) {
	return s.getRecipeDetail(ctx, s.db, userID, recipeID)
}

// CreateRecipe persists a new recipe for the user. The nested tag and
// ingredient descriptor lists are stripped from the scalar insert and
// reconciled against the user's existing rows afterwards, all inside one
// transaction.
func (s *recipeServiceImpl) CreateRecipe(ctx context.Context, userID int, req CreateRecipeRequest) (detail *RecipeDetail, err error) {
	if err = req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	// Commit on success, roll back on error or panic. The named return err
	// also picks up a failed commit.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var recipeID int
	err = tx.QueryRow(ctx, `
		INSERT INTO recipes (user_id, title, description, time_minutes, price, link)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id`,
		userID, req.Title, req.Description, req.TimeMinutes, req.Price, req.Link,
	).Scan(&recipeID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to insert recipe", err)
	}

	if err = s.resolveAndLink(ctx, tx, tagKind, req.Tags, userID, recipeID); err != nil {
		return nil, err
	}
	if err = s.resolveAndLink(ctx, tx, ingredientKind, req.Ingredients, userID, recipeID); err != nil {
		return nil, err
	}

	detail, err = s.getRecipeDetail(ctx, tx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateRecipe applies a partial update to a recipe in the user's scope.
//
// The nested lists follow the three-way sentinel: a nil pointer (field absent)
// leaves the existing associations untouched, a pointer to an empty list
// clears them, and a non-empty list clears then re-resolves. Scalar fields are
// merged field by field; the owner is never writable through this path.
func (s *recipeServiceImpl) UpdateRecipe(ctx context.Context, userID, recipeID int, req UpdateRecipeRequest) (detail *RecipeDetail, err error) {
	if err = req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	// Resolve the target within the owner's scope first; a row owned by
	// someone else is indistinguishable from a missing one.
	var existingID int
	err = tx.QueryRow(ctx,
		`SELECT id FROM recipes WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		recipeID, userID,
	).Scan(&existingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("recipe not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to load recipe for update", err)
	}

	if req.Tags != nil {
		if err = s.clearLinks(ctx, tx, tagKind, recipeID); err != nil {
			return nil, err
		}
		if err = s.resolveAndLink(ctx, tx, tagKind, *req.Tags, userID, recipeID); err != nil {
			return nil, err
		}
	}
	if req.Ingredients != nil {
		if err = s.clearLinks(ctx, tx, ingredientKind, recipeID); err != nil {
			return nil, err
		}
		if err = s.resolveAndLink(ctx, tx, ingredientKind, *req.Ingredients, userID, recipeID); err != nil {
			return nil, err
		}
	}

	// Field-by-field merge of the scalar fields present in the payload.
	var setClauses []string
	var args []interface{}
	argID := 1
	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}
	if req.Title != nil {
		addClause("title", *req.Title)
	}
	if req.Description != nil {
		addClause("description", *req.Description)
	}
	if req.TimeMinutes != nil {
		addClause("time_minutes", *req.TimeMinutes)
	}
	if req.Price != nil {
		addClause("price", *req.Price)
	}
	if req.Link != nil {
		addClause("link", *req.Link)
	}

	if len(setClauses) > 0 {
		args = append(args, recipeID, userID)
		query := fmt.Sprintf(
			`UPDATE recipes SET %s WHERE id = $%d AND user_id = $%d`,
			strings.Join(setClauses, ", "), argID, argID+1,
		)
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return nil, apperror.NewDatabaseError("failed to update recipe", err)
		}
	}

	detail, err = s.getRecipeDetail(ctx, tx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteRecipe removes a recipe in the user's scope. Join rows go with it via
// cascade. Deleting a recipe that does not exist in the scope (including one
// owned by someone else) reports not-found.
func (s *recipeServiceImpl) DeleteRecipe(ctx context.Context, userID, recipeID int) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM recipes WHERE id = $1 AND user_id = $2`, recipeID, userID)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete recipe", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("recipe not found", nil)
	}
	return nil
}

// --- Tags ---

// ListTags returns all tags owned by the user, ordered by name descending.
func (s *recipeServiceImpl) ListTags(ctx context.Context, userID int) ([]Tag, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, user_id
		FROM tags
		WHERE user_id = $1
		ORDER BY name DESC`, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list tags", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.UserID); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan tag row", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate tag rows", err)
	}
	return tags, nil
}

// UpdateTag renames a tag in the user's scope.
func (s *recipeServiceImpl) UpdateTag(ctx context.Context, userID, tagID int, req UpdateTagRequest) (*Tag, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var t Tag
	err := s.db.QueryRow(ctx, `
		UPDATE tags SET name = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id, name, user_id`,
		req.Name, tagID, userID,
	).Scan(&t.ID, &t.Name, &t.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("tag not found", nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperror.NewConflictError(fmt.Sprintf("tag '%s' already exists", req.Name), nil)
		}
		return nil, apperror.NewDatabaseError("failed to update tag", err)
	}
	return &t, nil
}

// DeleteTag removes a tag in the user's scope.
func (s *recipeServiceImpl) DeleteTag(ctx context.Context, userID, tagID int) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM tags WHERE id = $1 AND user_id = $2`, tagID, userID)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete tag", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("tag not found", nil)
	}
	return nil
}

// --- Ingredients ---

// ListIngredients returns all ingredients owned by the user, ordered by name
// descending.
func (s *recipeServiceImpl) ListIngredients(ctx context.Context, userID int) ([]Ingredient, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, user_id
		FROM ingredients
		WHERE user_id = $1
		ORDER BY name DESC`, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list ingredients", err)
	}
	defer rows.Close()

	ingredients := []Ingredient{}
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.UserID); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan ingredient row", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate ingredient rows", err)
	}
	return ingredients, nil
}

// --- Reconciliation ---

// resolveAndLink converts a list of nested descriptors into linked catalog
// rows for the given recipe. For each descriptor it reuses the row matching
// (owner, name) if one exists, creates it otherwise, and links it to the
// recipe. The upsert makes the lookup-or-create atomic, so two concurrent
// writes with the same (owner, name) cannot produce duplicates, and the link
// insert is a no-op when the row is already linked. Callers must run it inside
// the same transaction as the recipe write.
func (s *recipeServiceImpl) resolveAndLink(ctx context.Context, tx pgx.Tx, kind catalogKind, descriptors []NameDescriptor, ownerID, recipeID int) error {
	names, err := descriptorNames(descriptors)
	if err != nil {
		return err
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE
		SET name = EXCLUDED.name
		RETURNING id`, kind.table)
	link := fmt.Sprintf(`
		INSERT INTO %s (recipe_id, %s)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, kind.linkTable, kind.linkColumn)

	for _, name := range names {
		var rowID int
		if err := tx.QueryRow(ctx, upsert, ownerID, name).Scan(&rowID); err != nil {
			return apperror.NewDatabaseError(fmt.Sprintf("failed to resolve %s '%s'", strings.TrimSuffix(kind.table, "s"), name), err)
		}
		if _, err := tx.Exec(ctx, link, recipeID, rowID); err != nil {
			return apperror.NewDatabaseError(fmt.Sprintf("failed to link %s '%s'", strings.TrimSuffix(kind.table, "s"), name), err)
		}
	}
	return nil
}

// clearLinks removes all of a recipe's links to the given catalog table. The
// catalog rows themselves stay: clearing a recipe's tags does not delete the
// user's tags.
func (s *recipeServiceImpl) clearLinks(ctx context.Context, tx pgx.Tx, kind catalogKind, recipeID int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, kind.linkTable)
	if _, err := tx.Exec(ctx, query, recipeID); err != nil {
		return apperror.NewDatabaseError("failed to clear recipe links", err)
	}
	return nil
}

// --- Read helpers ---

// getRecipeDetail fetches the detail representation of one recipe in the
// user's scope, usable both inside and outside a transaction.
func (s *recipeServiceImpl) getRecipeDetail(ctx context.Context, q dbtx, userID, recipeID int) (*RecipeDetail, error) {
	var detail RecipeDetail
	err := q.QueryRow(ctx, `
		SELECT id, title, description, time_minutes, price::text, link
		FROM recipes
		WHERE id = $1 AND user_id = $2`,
		recipeID, userID,
	).Scan(&detail.ID, &detail.Title, &detail.Description, &detail.TimeMinutes, &detail.Price, &detail.Link)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("recipe not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get recipe", err)
	}

	tagsByRecipe, err := s.loadLinkedTags(ctx, q, []int{recipeID})
	if err != nil {
		return nil, err
	}
	ingredientsByRecipe, err := s.loadLinkedIngredients(ctx, q, []int{recipeID})
	if err != nil {
		return nil, err
	}
	detail.Tags = tagsByRecipe[recipeID]
	detail.Ingredients = ingredientsByRecipe[recipeID]

	return &detail, nil
}

// loadLinkedTags fetches the tags linked to each of the given recipes in one
// query and returns them grouped by recipe id. Recipes with no tags get an
// empty slice so they serialize as [] rather than null.
func (s *recipeServiceImpl) loadLinkedTags(ctx context.Context, q dbtx, recipeIDs []int) (map[int][]Tag, error) {
	result := make(map[int][]Tag, len(recipeIDs))
	for _, id := range recipeIDs {
		result[id] = []Tag{}
	}
	if len(recipeIDs) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT rt.recipe_id, t.id, t.name, t.user_id
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY rt.recipe_id, t.name DESC`, recipeIDs)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int
		var t Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.UserID); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe tag row", err)
		}
		result[recipeID] = append(result[recipeID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate recipe tag rows", err)
	}
	return result, nil
}

// loadLinkedIngredients is the ingredient counterpart of loadLinkedTags.
func (s *recipeServiceImpl) loadLinkedIngredients(ctx context.Context, q dbtx, recipeIDs []int) (map[int][]Ingredient, error) {
	result := make(map[int][]Ingredient, len(recipeIDs))
	for _, id := range recipeIDs {
		result[id] = []Ingredient{}
	}
	if len(recipeIDs) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT ri.recipe_id, i.id, i.name, i.user_id
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, i.name DESC`, recipeIDs)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipe ingredients", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int
		var ing Ingredient
		if err := rows.Scan(&recipeID, &ing.ID, &ing.Name, &ing.UserID); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe ingredient row", err)
		}
		result[recipeID] = append(result[recipeID], ing)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate recipe ingredient rows", err)
	}
	return result, nil
}

// Compile-time check that recipeServiceImpl implements RecipeService.
var _ RecipeService = (*recipeServiceImpl)(nil)
