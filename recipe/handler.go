// HTTP handlers and route registration for the recipe catalog. The handlers
// translate between HTTP and the service layer; every route here sits behind
// the JWT middleware, so a request that reaches a handler always carries an
// authenticated user id in its context.
package recipe

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/recipebox-go/apperror"
	"github.com/user/recipebox-go/auth"
)

// RecipeHandler provides HTTP handlers for the recipe catalog.
type RecipeHandler struct {
	service RecipeService
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service RecipeService) *RecipeHandler {
	return &RecipeHandler{service: service}
}

// RegisterRoutes registers the recipe, tag and ingredient routes on the given
// router. Ingredients are read-only over HTTP: they come into existence
// through recipe payloads, and renaming or deleting them is not exposed.
func (h *RecipeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.HandleListRecipes())
		r.Post("/", h.HandleCreateRecipe())
		r.Route("/{recipeID}", func(r chi.Router) {
			r.Get("/", h.HandleGetRecipe())
			r.Put("/", h.HandleUpdateRecipe(true))
			r.Patch("/", h.HandleUpdateRecipe(false))
			r.Delete("/", h.HandleDeleteRecipe())
		})
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.HandleListTags())
		r.Route("/{tagID}", func(r chi.Router) {
			r.Put("/", h.HandleUpdateTag())
			r.Patch("/", h.HandleUpdateTag())
			r.Delete("/", h.HandleDeleteTag())
		})
	})

	r.Get("/ingredients", h.HandleListIngredients())
}

// urlID parses a numeric URL parameter. A non-numeric value cannot name any
// existing resource, so it maps to not-found rather than bad-request.
func urlID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, apperror.NewNotFoundError("resource not found", err)
	}
	return id, nil
}

// requestUserID extracts the authenticated user's id from the request context.
func requestUserID(r *http.Request) (int, error) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		return 0, apperror.NewAuthError("user ID not found in context", nil)
	}
	return userID, nil
}

// HandleListRecipes godoc
// @Summary List recipes
// @Description Lists all recipes owned by the authenticated user, most recently created first. Returns the summary representation, without descriptions.
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RecipeSummary "List of the user's recipes"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /recipes [get]
func (h *RecipeHandler) HandleListRecipes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		recipes, err := h.service.ListRecipes(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, recipes)
	}
}

// HandleGetRecipe godoc
// @Summary Get a recipe
// @Description Retrieves one recipe owned by the authenticated user, including its description.
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param recipeID path int true "Recipe ID"
// @Success 200 {object} RecipeDetail "The recipe"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such recipe in the user's scope"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /recipes/{recipeID} [get]
func (h *RecipeHandler) HandleGetRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipeID, err := urlID(r, "recipeID")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		recipe, err := h.service.GetRecipe(r.Context(), userID, recipeID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, recipe)
	}
}

// HandleCreateRecipe godoc
// @Summary Create a recipe
// @Description Creates a recipe owned by the authenticated user. Nested tags and ingredients are matched by name against the user's existing ones; missing ones are created.
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recipe body CreateRecipeRequest true "Recipe to create"
// @Success 201 {object} RecipeDetail "The created recipe"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid payload"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /recipes [post]
func (h *RecipeHandler) HandleCreateRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		var req CreateRecipeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request payload", err))
			return
		}
		defer r.Body.Close()

		recipe, err := h.service.CreateRecipe(r.Context(), userID, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, recipe)
	}
}

// HandleUpdateRecipe returns the update handler. With full set (PUT) the
// payload must carry every writable scalar field; without it (PATCH) any
// subset is accepted. Unknown payload fields, including any owner field, are
// dropped by JSON decoding rather than rejected: ownership is never writable
// and its existence is not surfaced.
//
// HandleUpdateRecipe godoc
// @Summary Update a recipe
// @Description Updates a recipe owned by the authenticated user. PUT requires the full set of scalar fields, PATCH accepts any subset. Omitting tags or ingredients leaves them unchanged; an empty list clears them.
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recipeID path int true "Recipe ID"
// @Param recipe body UpdateRecipeRequest true "Fields to update"
// @Success 200 {object} RecipeDetail "The updated recipe"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid payload"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such recipe in the user's scope"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /recipes/{recipeID} [patch]
func (h *RecipeHandler) HandleUpdateRecipe(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipeID, err := urlID(r, "recipeID")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		var req UpdateRecipeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request payload", err))
			return
		}
		defer r.Body.Close()

		if full {
			if err := req.RequireFull(); err != nil {
				auth.WriteError(w, r, err)
				return
			}
		}

		recipe, err := h.service.UpdateRecipe(r.Context(), userID, recipeID, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, recipe)
	}
}

// HandleDeleteRecipe godoc
// @Summary Delete a recipe
// @Description Deletes a recipe owned by the authenticated user. Its tag and ingredient associations go with it; the tags and ingredients themselves remain.
// @Tags recipes
// @Security BearerAuth
// @Param recipeID path int true "Recipe ID"
// @Success 204 "Recipe deleted"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such recipe in the user's scope"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /recipes/{recipeID} [delete]
func (h *RecipeHandler) HandleDeleteRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipeID, err := urlID(r, "recipeID")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		if err := h.service.DeleteRecipe(r.Context(), userID, recipeID); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListTags godoc
// @Summary List tags
// @Description Lists all tags owned by the authenticated user, ordered by name descending.
// @Tags tags
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Tag "List of the user's tags"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /tags [get]
func (h *RecipeHandler) HandleListTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		tags, err := h.service.ListTags(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, tags)
	}
}

// HandleUpdateTag godoc
// @Summary Update a tag
// @Description Renames a tag owned by the authenticated user.
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tagID path int true "Tag ID"
// @Param tag body UpdateTagRequest true "New tag name"
// @Success 200 {object} Tag "The updated tag"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid payload"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such tag in the user's scope"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - A tag with that name already exists"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /tags/{tagID} [patch]
func (h *RecipeHandler) HandleUpdateTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		tagID, err := urlID(r, "tagID")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		var req UpdateTagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request payload", err))
			return
		}
		defer r.Body.Close()

		tag, err := h.service.UpdateTag(r.Context(), userID, tagID, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, tag)
	}
}

// HandleDeleteTag godoc
// @Summary Delete a tag
// @Description Deletes a tag owned by the authenticated user. Recipes that carried the tag simply lose it.
// @Tags tags
// @Security BearerAuth
// @Param tagID path int true "Tag ID"
// @Success 204 "Tag deleted"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - No such tag in the user's scope"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /tags/{tagID} [delete]
func (h *RecipeHandler) HandleDeleteTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		tagID, err := urlID(r, "tagID")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		if err := h.service.DeleteTag(r.Context(), userID, tagID); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListIngredients godoc
// @Summary List ingredients
// @Description Lists all ingredients owned by the authenticated user, ordered by name descending.
// @Tags ingredients
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Ingredient "List of the user's ingredients"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /ingredients [get]
func (h *RecipeHandler) HandleListIngredients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		ingredients, err := h.service.ListIngredients(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ingredients)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
