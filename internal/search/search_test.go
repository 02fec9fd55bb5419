package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
)

func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func indexTestRecipe(t *testing.T, index *SearchIndex, id, userID, title, description string, tags, ingredients []string) {
	t.Helper()
	doc := &RecipeDocument{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: description,
		Tags:        tags,
		Ingredients: ingredients,
		CreatedAt:   time.Now().UnixMilli(),
	}
	require.NoError(t, index.IndexRecipe(doc))
}

func TestNewSearchIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexAndSearch(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	indexTestRecipe(t, index, "recipe-1", "user-1", "Thai Green Curry", "Fragrant coconut curry.", []string{"Dinner", "Spicy"}, []string{"Coconut Milk", "Basil"})
	indexTestRecipe(t, index, "recipe-2", "user-1", "Pancakes", "Fluffy breakfast stack.", []string{"Breakfast"}, []string{"Flour", "Eggs"})

	result, err := index.Search(ctx, SearchParams{UserID: "user-1", Query: "curry"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "recipe-1", result.Hits[0].ID)
	assert.Equal(t, "Thai Green Curry", result.Hits[0].Title)
}

func TestSearchByTagAndIngredient(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	indexTestRecipe(t, index, "recipe-1", "user-1", "Mystery Dish", "", []string{"Spicy"}, []string{"Coconut Milk"})

	result, err := index.Search(ctx, SearchParams{UserID: "user-1", Query: "spicy"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)

	result, err = index.Search(ctx, SearchParams{UserID: "user-1", Query: "coconut"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
}

func TestSearchOwnerScope(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	indexTestRecipe(t, index, "recipe-1", "user-1", "Shared Title", "", nil, nil)
	indexTestRecipe(t, index, "recipe-2", "user-2", "Shared Title", "", nil, nil)

	result, err := index.Search(ctx, SearchParams{UserID: "user-1", Query: "shared"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "recipe-1", result.Hits[0].ID)

	// Empty query lists everything the user owns.
	result, err = index.Search(ctx, SearchParams{UserID: "user-2"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "recipe-2", result.Hits[0].ID)

	// Missing scope is an error, never a cross-tenant search.
	_, err = index.Search(ctx, SearchParams{Query: "shared"})
	assert.Error(t, err)
}

func TestDeleteRecipe(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	indexTestRecipe(t, index, "recipe-1", "user-1", "Doomed Dish", "", nil, nil)

	require.NoError(t, index.DeleteRecipe("recipe-1"))

	result, err := index.Search(ctx, SearchParams{UserID: "user-1", Query: "doomed"})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestIndexRecipesBatch(t *testing.T) {
	index := setupTestIndex(t)

	var docs []*RecipeDocument
	for _, r := range []*domain.Recipe{
		{ID: "recipe-1", UserID: "user-1", Title: "Soup", CreatedAt: time.Now()},
		{ID: "recipe-2", UserID: "user-1", Title: "Salad", CreatedAt: time.Now()},
	} {
		docs = append(docs, FromRecipe(r))
	}
	require.NoError(t, index.IndexRecipes(docs))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
