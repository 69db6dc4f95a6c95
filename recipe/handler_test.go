package recipe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/auth"
)

// fakeRecipeService is an in-memory RecipeService for handler tests. It stores
// one recipe per user under a fixed id and is not concurrency-safe.
type fakeRecipeService struct {
	recipes     map[int]*RecipeDetail // keyed by owner user id
	tags        map[int][]Tag
	ingredients map[int][]Ingredient
	lastUpdate  *UpdateRecipeRequest
}

const fakeRecipeID = 1

func newFakeRecipeService() *fakeRecipeService {
	return &fakeRecipeService{
		recipes:     map[int]*RecipeDetail{},
		tags:        map[int][]Tag{},
		ingredients: map[int][]Ingredient{},
	}
}

func (f *fakeRecipeService) ListRecipes(ctx context.Context, userID int) ([]RecipeSummary, error) {
	out := []RecipeSummary{}
	if rec, ok := f.recipes[userID]; ok {
		out = append(out, rec.RecipeSummary)
	}
	return out, nil
}

func (f *fakeRecipeService) GetRecipe(ctx context.Context, userID, recipeID int) (*RecipeDetail, error) {
	rec, ok := f.recipes[userID]
	if !ok || rec.ID != recipeID {
		return nil, apperror.NewNotFoundError("recipe not found", nil)
	}
	return rec, nil
}

func (f *fakeRecipeService) CreateRecipe(ctx context.Context, userID int, req CreateRecipeRequest) (*RecipeDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec := &RecipeDetail{
		RecipeSummary: RecipeSummary{
			ID:          fakeRecipeID,
			Title:       req.Title,
			TimeMinutes: req.TimeMinutes,
			Price:       req.Price,
			Link:        req.Link,
			Tags:        []Tag{},
			Ingredients: []Ingredient{},
		},
		Description: req.Description,
	}
	f.recipes[userID] = rec
	return rec, nil
}

func (f *fakeRecipeService) UpdateRecipe(ctx context.Context, userID, recipeID int, req UpdateRecipeRequest) (*RecipeDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.lastUpdate = &req
	rec, ok := f.recipes[userID]
	if !ok || rec.ID != recipeID {
		return nil, apperror.NewNotFoundError("recipe not found", nil)
	}
	if req.Title != nil {
		rec.Title = *req.Title
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	return rec, nil
}

func (f *fakeRecipeService) DeleteRecipe(ctx context.Context, userID, recipeID int) error {
	rec, ok := f.recipes[userID]
	if !ok || rec.ID != recipeID {
		return apperror.NewNotFoundError("recipe not found", nil)
	}
	delete(f.recipes, userID)
	return nil
}

func (f *fakeRecipeService) ListTags(ctx context.Context, userID int) ([]Tag, error) {
	tags := f.tags[userID]
	if tags == nil {
		tags = []Tag{}
	}
	return tags, nil
}

func (f *fakeRecipeService) UpdateTag(ctx context.Context, userID, tagID int, req UpdateTagRequest) (*Tag, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for i, tag := range f.tags[userID] {
		if tag.ID == tagID {
			f.tags[userID][i].Name = req.Name
			return &f.tags[userID][i], nil
		}
	}
	return nil, apperror.NewNotFoundError("tag not found", nil)
}

func (f *fakeRecipeService) DeleteTag(ctx context.Context, userID, tagID int) error {
	for i, tag := range f.tags[userID] {
		if tag.ID == tagID {
			f.tags[userID] = append(f.tags[userID][:i], f.tags[userID][i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFoundError("tag not found", nil)
}

func (f *fakeRecipeService) ListIngredients(ctx context.Context, userID int) ([]Ingredient, error) {
	ingredients := f.ingredients[userID]
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	return ingredients, nil
}

var _ RecipeService = (*fakeRecipeService)(nil)

// newTestRouter mounts the handler routes behind a middleware that injects the
// given user id, standing in for the JWT middleware.
func newTestRouter(svc RecipeService, userID int) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.NewContextWithUserID(req.Context(), userID)))
		})
	})
	NewRecipeHandler(svc).RegisterRoutes(r)
	return r
}

func TestHandleCreateRecipe(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	body := `{"title": "Thai prawn curry", "time_minutes": 30, "price": "12.50", "tags": [{"name": "Thai"}]}`
	req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created RecipeDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "Thai prawn curry", created.Title)
	assert.Equal(t, "12.50", created.Price)
}

func TestHandleCreateRecipeInvalidPayload(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(`{not json`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(`{"price": "5.00"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad price format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(`{"title": "Soup", "price": "cheap"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleListRecipesReturnsSummaries(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	createBody := `{"title": "Soup", "time_minutes": 10, "price": "3.00", "description": "Hot soup."}`
	req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/recipes/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The list shape must not carry descriptions; only the detail does.
	var listed []map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Soup", listed[0]["title"])
	assert.NotContains(t, listed[0], "description")
}

func TestHandleGetRecipe(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	createBody := `{"title": "Soup", "time_minutes": 10, "price": "3.00", "description": "Hot soup."}`
	req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/recipes/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "Hot soup.", detail["description"])
}

func TestHandleGetRecipeNotFound(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	req := httptest.NewRequest(http.MethodGet, "/recipes/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetRecipeOtherOwnerIsNotFound(t *testing.T) {
	svc := newFakeRecipeService()

	// User 1 creates a recipe; user 2 must see 404, not 403, on its id.
	ownerRouter := newTestRouter(svc, 1)
	createBody := `{"title": "Secret dish", "time_minutes": 5, "price": "1.00"}`
	req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	ownerRouter.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	strangerRouter := newTestRouter(svc, 2)
	req = httptest.NewRequest(http.MethodGet, "/recipes/1", nil)
	rec = httptest.NewRecorder()
	strangerRouter.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetRecipeNonNumericID(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	req := httptest.NewRequest(http.MethodGet, "/recipes/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpdateRecipe(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	createBody := `{"title": "Soup", "time_minutes": 10, "price": "3.00"}`
	req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("patch accepts a partial payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/recipes/1", strings.NewReader(`{"title": "Better soup"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated RecipeDetail
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
		assert.Equal(t, "Better soup", updated.Title)
		// Tags were not mentioned, so the service must have seen nil.
		assert.Nil(t, svc.lastUpdate.Tags)
	})

	t.Run("patch with empty tags clears them", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/recipes/1", strings.NewReader(`{"tags": []}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.lastUpdate.Tags)
		assert.Empty(t, *svc.lastUpdate.Tags)
	})

	t.Run("put rejects a partial payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/recipes/1", strings.NewReader(`{"title": "Only title"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("put accepts a full payload", func(t *testing.T) {
		body := `{"title": "Full soup", "time_minutes": 12, "price": "4.00"}`
		req := httptest.NewRequest(http.MethodPut, "/recipes/1", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleDeleteRecipe(t *testing.T) {
	svc := newFakeRecipeService()
	router := newTestRouter(svc, 1)

	createBody := `{"title": "Soup", "time_minutes": 10, "price": "3.00"}`
	req := httptest.NewRequest(http.MethodPost, "/recipes/", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/recipes/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting again reports not-found.
	req = httptest.NewRequest(http.MethodDelete, "/recipes/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleTags(t *testing.T) {
	svc := newFakeRecipeService()
	svc.tags[1] = []Tag{{ID: 10, Name: "Vegan", UserID: 1}}
	router := newTestRouter(svc, 1)

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tags/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var tags []Tag
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&tags))
		require.Len(t, tags, 1)
		assert.Equal(t, "Vegan", tags[0].Name)
	})

	t.Run("rename", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/tags/10", strings.NewReader(`{"name": "Vegetarian"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var tag Tag
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&tag))
		assert.Equal(t, "Vegetarian", tag.Name)
	})

	t.Run("rename to empty is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/tags/10", strings.NewReader(`{"name": ""}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/tags/10", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("delete missing tag is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/tags/10", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleListIngredients(t *testing.T) {
	svc := newFakeRecipeService()
	svc.ingredients[1] = []Ingredient{{ID: 5, Name: "Salt", UserID: 1}}
	router := newTestRouter(svc, 1)

	req := httptest.NewRequest(http.MethodGet, "/ingredients", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var ingredients []Ingredient
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ingredients))
	require.Len(t, ingredients, 1)
	assert.Equal(t, "Salt", ingredients[0].Name)
}

func TestHandlerWithoutUserID(t *testing.T) {
	svc := newFakeRecipeService()
	r := chi.NewRouter()
	NewRecipeHandler(svc).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/recipes/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
