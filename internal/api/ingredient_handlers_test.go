package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientCRUD(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/ingredients", "Authorization: Bearer "+auth.AccessToken,
		map[string]any{"name": "Kale"})
	require.Equal(t, http.StatusOK, resp.Code, "Create ingredient failed: %s", resp.Body.String())
	created := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Kale", created.Name)

	// Exact-name find-or-create: "Kale" again reuses the row, a
	// different casing does not.
	resp = ts.api.Post("/api/v1/ingredients", "Authorization: Bearer "+auth.AccessToken,
		map[string]any{"name": " Kale "})
	require.Equal(t, http.StatusOK, resp.Code)
	again := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, created.ID, again.ID)

	resp = ts.api.Post("/api/v1/ingredients", "Authorization: Bearer "+auth.AccessToken,
		map[string]any{"name": "KALE"})
	require.Equal(t, http.StatusOK, resp.Code)
	shouted := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data
	assert.NotEqual(t, created.ID, shouted.ID)

	resp = ts.api.Patch("/api/v1/ingredients/"+created.ID, "Authorization: Bearer "+auth.AccessToken,
		map[string]any{"name": "Curly Kale"})
	require.Equal(t, http.StatusOK, resp.Code)
	renamed := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Curly Kale", renamed.Name)

	resp = ts.api.Delete("/api/v1/ingredients/"+created.ID, "Authorization: Bearer "+auth.AccessToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/ingredients/"+created.ID, "Authorization: Bearer "+auth.AccessToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestIngredientBlankNameRejected(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/ingredients", "Authorization: Bearer "+auth.AccessToken,
		map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestIngredientAssignedOnlyDeduplicates(t *testing.T) {
	ts := setupTestServer(t)
	auth := ts.registerUser(t, "alice@example.com")

	// One ingredient on two recipes, another on none.
	ts.createRecipe(t, auth.AccessToken, map[string]any{
		"title":       "Scramble",
		"ingredients": []string{"Eggs"},
	})
	ts.createRecipe(t, auth.AccessToken, map[string]any{
		"title":       "Omelette",
		"ingredients": []string{"Eggs"},
	})
	resp := ts.api.Post("/api/v1/ingredients", "Authorization: Bearer "+auth.AccessToken,
		map[string]any{"name": "Saffron"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/ingredients?assigned_only=true", "Authorization: Bearer "+auth.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code)
	assigned := decodeEnvelope[ListIngredientsResponse](t, resp.Body.Bytes())
	require.Len(t, assigned.Data.Ingredients, 1)
	assert.Equal(t, "Eggs", assigned.Data.Ingredients[0].Name)

	resp = ts.api.Get("/api/v1/ingredients", "Authorization: Bearer "+auth.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code)
	all := decodeEnvelope[ListIngredientsResponse](t, resp.Body.Bytes())
	assert.Len(t, all.Data.Ingredients, 2)
}
