package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePrice(t *testing.T) {
	valid := []string{"0", "5", "12.50", "5.5", "999.99", "100", "0.01"}
	for _, price := range valid {
		assert.NoError(t, ValidatePrice(price), "price %q should be accepted", price)
	}

	invalid := []string{"", "-5.00", "1000.00", "12.345", "abc", "12.", ".50", "12,50", "1e3", " 5"}
	for _, price := range invalid {
		assert.Error(t, ValidatePrice(price), "price %q should be rejected", price)
	}
}

func TestNameDescriptorName(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		name, err := NameDescriptor{"name": "Vegan"}.Name()
		require.NoError(t, err)
		assert.Equal(t, "Vegan", name)
	})

	t.Run("extra fields are tolerated", func(t *testing.T) {
		name, err := NameDescriptor{"name": "Vegan", "color": "green"}.Name()
		require.NoError(t, err)
		assert.Equal(t, "Vegan", name)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := NameDescriptor{"color": "green"}.Name()
		assert.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NameDescriptor{"name": ""}.Name()
		assert.Error(t, err)
	})

	t.Run("non-string name", func(t *testing.T) {
		_, err := NameDescriptor{"name": 42}.Name()
		assert.Error(t, err)
	})
}

// The update payload must distinguish "tags not mentioned" from "tags set to
// an empty list": the first leaves associations alone, the second clears them.
func TestUpdateRecipeRequestTagSentinel(t *testing.T) {
	t.Run("absent field decodes to nil", func(t *testing.T) {
		var req UpdateRecipeRequest
		require.NoError(t, json.Unmarshal([]byte(`{"title": "New title"}`), &req))

		assert.Nil(t, req.Tags)
		assert.Nil(t, req.Ingredients)
		require.NotNil(t, req.Title)
		assert.Equal(t, "New title", *req.Title)
	})

	t.Run("empty list decodes to non-nil empty slice", func(t *testing.T) {
		var req UpdateRecipeRequest
		require.NoError(t, json.Unmarshal([]byte(`{"tags": []}`), &req))

		require.NotNil(t, req.Tags)
		assert.Empty(t, *req.Tags)
		assert.Nil(t, req.Ingredients)
	})

	t.Run("non-empty list decodes with descriptors", func(t *testing.T) {
		var req UpdateRecipeRequest
		require.NoError(t, json.Unmarshal([]byte(`{"tags": [{"name": "Curry"}, {"name": "Dinner"}]}`), &req))

		require.NotNil(t, req.Tags)
		require.Len(t, *req.Tags, 2)
		name, err := (*req.Tags)[0].Name()
		require.NoError(t, err)
		assert.Equal(t, "Curry", name)
	})

	t.Run("owner field in payload is silently dropped", func(t *testing.T) {
		var req UpdateRecipeRequest
		require.NoError(t, json.Unmarshal([]byte(`{"user": 999, "user_id": 999, "title": "Hijack"}`), &req))

		require.NotNil(t, req.Title)
		assert.Equal(t, "Hijack", *req.Title)
	})
}

func TestUpdateRecipeRequestValidate(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	t.Run("empty payload is valid for a partial update", func(t *testing.T) {
		assert.NoError(t, (&UpdateRecipeRequest{}).Validate())
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		assert.Error(t, (&UpdateRecipeRequest{Title: str("")}).Validate())
	})

	t.Run("negative time is rejected", func(t *testing.T) {
		assert.Error(t, (&UpdateRecipeRequest{TimeMinutes: num(-1)}).Validate())
	})

	t.Run("bad price is rejected", func(t *testing.T) {
		assert.Error(t, (&UpdateRecipeRequest{Price: str("1234.56")}).Validate())
	})

	t.Run("bad nested descriptor is rejected", func(t *testing.T) {
		tags := []NameDescriptor{{"name": ""}}
		assert.Error(t, (&UpdateRecipeRequest{Tags: &tags}).Validate())
	})
}

func TestUpdateRecipeRequestRequireFull(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	full := UpdateRecipeRequest{Title: str("Soup"), TimeMinutes: num(10), Price: str("3.50")}
	assert.NoError(t, full.RequireFull())

	partial := UpdateRecipeRequest{Title: str("Soup")}
	assert.Error(t, partial.RequireFull())

	assert.Error(t, (&UpdateRecipeRequest{}).RequireFull())
}

func TestCreateRecipeRequestValidate(t *testing.T) {
	valid := CreateRecipeRequest{
		Title:       "Thai prawn curry",
		TimeMinutes: 30,
		Price:       "12.50",
		Tags:        []NameDescriptor{{"name": "Thai"}},
		Ingredients: []NameDescriptor{{"name": "Prawns"}},
	}
	assert.NoError(t, valid.Validate())

	t.Run("missing title", func(t *testing.T) {
		req := valid
		req.Title = ""
		assert.Error(t, req.Validate())
	})

	t.Run("missing price", func(t *testing.T) {
		req := valid
		req.Price = ""
		assert.Error(t, req.Validate())
	})

	t.Run("negative time", func(t *testing.T) {
		req := valid
		req.TimeMinutes = -5
		assert.Error(t, req.Validate())
	})

	t.Run("descriptor without name", func(t *testing.T) {
		req := valid
		req.Ingredients = []NameDescriptor{{"quantity": "200g"}}
		assert.Error(t, req.Validate())
	})
}
