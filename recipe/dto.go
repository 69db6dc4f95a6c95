// Data Transfer Objects for the recipe API, plus the payload validation that
// runs at the HTTP boundary before anything reaches the service layer.
package recipe

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/user/recipebox-go/apperror"
)

// validate is the shared validator instance for struct-tag validation of
// request payloads.
var validate = validator.New(validator.WithRequiredStructEnabled())

// priceRe accepts a non-negative fixed-point decimal with at most 5 digits in
// total and at most 2 after the decimal point (so at most 3 before it),
// matching the NUMERIC(5,2) column.
var priceRe = regexp.MustCompile(`^\d{1,3}(\.\d{1,2})?$`)

// ValidatePrice checks that a price string is a well-formed fixed-point
// decimal within the supported range.
func ValidatePrice(price string) error {
	if !priceRe.MatchString(price) {
		return apperror.NewValidationError(
			"price must be a decimal with at most 5 digits and 2 decimal places, e.g. \"12.50\"", nil)
	}
	return nil
}

// CreateRecipeRequest represents the payload for creating a recipe. Tags and
// ingredients are optional nested descriptor lists; descriptors naming an
// existing tag/ingredient of the same owner are reused, the rest are created.
// @Description Request body for creating a recipe
type CreateRecipeRequest struct {
	Title       string           `json:"title" validate:"required,max=255" example:"Thai prawn curry"`
	Description string           `json:"description" example:"A quick red curry."`
	TimeMinutes int              `json:"time_minutes" validate:"gte=0" example:"30"`
	Price       string           `json:"price" validate:"required" example:"12.50"`
	Link        string           `json:"link" validate:"omitempty,max=255" example:"https://example.com/recipe.pdf"`
	Tags        []NameDescriptor `json:"tags"`
	Ingredients []NameDescriptor `json:"ingredients"`
}

// Validate checks the payload. Descriptor lists are validated here too so a
// malformed nested entry is rejected before a transaction is opened.
func (r *CreateRecipeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return apperror.NewValidationError("invalid recipe payload: "+err.Error(), err)
	}
	if err := ValidatePrice(r.Price); err != nil {
		return err
	}
	if _, err := descriptorNames(r.Tags); err != nil {
		return err
	}
	if _, err := descriptorNames(r.Ingredients); err != nil {
		return err
	}
	return nil
}

// UpdateRecipeRequest represents the payload for updating a recipe. Every
// field is a pointer so that three states can be told apart where it matters:
//
//   - field absent from the JSON  -> nil pointer      -> leave unchanged
//   - "tags": []                  -> empty slice      -> clear all associations
//   - "tags": [{"name": "X"}]     -> non-empty slice  -> replace associations
//
// Collapsing "absent" and "empty" would silently break partial updates that
// omit the tags field, so the distinction is preserved all the way down to the
// service. The owner of a recipe is not represented here at all: any
// user/owner key in the payload is silently dropped by JSON decoding rather
// than rejected, so the response does not reveal that the field exists.
// @Description Request body for updating a recipe
type UpdateRecipeRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	TimeMinutes *int              `json:"time_minutes,omitempty"`
	Price       *string           `json:"price,omitempty"`
	Link        *string           `json:"link,omitempty"`
	Tags        *[]NameDescriptor `json:"tags,omitempty"`
	Ingredients *[]NameDescriptor `json:"ingredients,omitempty"`
}

// Validate checks whichever fields are present in the payload.
func (r *UpdateRecipeRequest) Validate() error {
	if r.Title != nil {
		if *r.Title == "" {
			return apperror.NewValidationError("title must not be empty", nil)
		}
		if len(*r.Title) > 255 {
			return apperror.NewValidationError("title must be at most 255 characters", nil)
		}
	}
	if r.TimeMinutes != nil && *r.TimeMinutes < 0 {
		return apperror.NewValidationError("time_minutes must not be negative", nil)
	}
	if r.Price != nil {
		if err := ValidatePrice(*r.Price); err != nil {
			return err
		}
	}
	if r.Link != nil && len(*r.Link) > 255 {
		return apperror.NewValidationError("link must be at most 255 characters", nil)
	}
	if r.Tags != nil {
		if _, err := descriptorNames(*r.Tags); err != nil {
			return err
		}
	}
	if r.Ingredients != nil {
		if _, err := descriptorNames(*r.Ingredients); err != nil {
			return err
		}
	}
	return nil
}

// RequireFull checks that every writable scalar field is present, which is the
// contract of a full (PUT) update as opposed to a partial (PATCH) one.
func (r *UpdateRecipeRequest) RequireFull() error {
	if r.Title == nil || r.TimeMinutes == nil || r.Price == nil {
		return apperror.NewValidationError("full update requires title, time_minutes and price", nil)
	}
	return nil
}

// UpdateTagRequest represents the payload for renaming a tag.
// @Description Request body for updating a tag
type UpdateTagRequest struct {
	Name string `json:"name" validate:"required,max=255" example:"Dessert"`
}

// Validate checks the payload.
func (r *UpdateTagRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return apperror.NewValidationError("invalid tag payload: "+err.Error(), err)
	}
	return nil
}
