package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

// makeTestRecipe creates a domain.Recipe with sensible defaults for testing.
func makeTestRecipe(id, userID, title string) *domain.Recipe {
	now := time.Now().UTC()
	return &domain.Recipe{
		ID:          id,
		UserID:      userID,
		Title:       title,
		TimeMinutes: 30,
		PriceCents:  550,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateAndGetRecipe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")

	r := makeTestRecipe("recipe-1", "user-1", "Thai Curry")
	r.Link = "https://example.com/curry"
	r.Description = "A quick weeknight curry."
	if err := s.CreateRecipe(ctx, r, []string{"Dinner", "Spicy"}, []string{"Coconut Milk"}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	// Relations are populated on the way out of CreateRecipe.
	if len(r.Tags) != 2 {
		t.Errorf("expected 2 tags on created recipe, got %d", len(r.Tags))
	}
	if len(r.Ingredients) != 1 {
		t.Errorf("expected 1 ingredient on created recipe, got %d", len(r.Ingredients))
	}

	got, err := s.GetRecipe(ctx, "user-1", "recipe-1")
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "Thai Curry" {
		t.Errorf("Title: got %q, want Thai Curry", got.Title)
	}
	if got.TimeMinutes != 30 {
		t.Errorf("TimeMinutes: got %d, want 30", got.TimeMinutes)
	}
	if got.PriceCents != 550 {
		t.Errorf("PriceCents: got %d, want 550", got.PriceCents)
	}
	if got.Link != "https://example.com/curry" {
		t.Errorf("Link: got %q", got.Link)
	}
	if got.Description != "A quick weeknight curry." {
		t.Errorf("Description: got %q", got.Description)
	}
	// Tags come back sorted by name.
	if len(got.Tags) != 2 || got.Tags[0].Name != "Dinner" || got.Tags[1].Name != "Spicy" {
		t.Errorf("Tags: got %v", got.Tags)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].Name != "Coconut Milk" {
		t.Errorf("Ingredients: got %v", got.Ingredients)
	}
}

func TestCreateRecipeReusesExistingTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")

	existing, err := s.FindOrCreateTag(ctx, "user-1", "Dinner")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}

	r := makeTestRecipe("recipe-1", "user-1", "Stew")
	if err := s.CreateRecipe(ctx, r, []string{"Dinner"}, nil); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	if len(r.Tags) != 1 || r.Tags[0].ID != existing.ID {
		t.Errorf("expected recipe to link existing tag %s, got %v", existing.ID, r.Tags)
	}

	tags, err := s.ListTags(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("expected no duplicate tag, got %d tags", len(tags))
	}
}

func TestGetRecipeCrossOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")
	mustCreateUser(t, s, "user-2", "bob@example.com")

	r := makeTestRecipe("recipe-1", "user-1", "Secret Sauce")
	if err := s.CreateRecipe(ctx, r, nil, nil); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	// Another owner sees not-found, not forbidden.
	if _, err := s.GetRecipe(ctx, "user-2", "recipe-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetRecipe: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteRecipe(ctx, "user-2", "recipe-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteRecipe: expected ErrNotFound, got %v", err)
	}

	bad := makeTestRecipe("recipe-1", "user-2", "Hijack")
	if err := s.UpdateRecipe(ctx, bad, domain.UnchangedRelation(), domain.UnchangedRelation()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateRecipe: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRecipeRelationPatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")

	r := makeTestRecipe("recipe-1", "user-1", "Salad")
	if err := s.CreateRecipe(ctx, r, []string{"Lunch"}, []string{"Lettuce"}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	// Unchanged patches leave links alone.
	r.Title = "Big Salad"
	r.Touch()
	if err := s.UpdateRecipe(ctx, r, domain.UnchangedRelation(), domain.UnchangedRelation()); err != nil {
		t.Fatalf("UpdateRecipe unchanged: %v", err)
	}
	if len(r.Tags) != 1 || r.Tags[0].Name != "Lunch" {
		t.Errorf("tags changed by unchanged patch: %v", r.Tags)
	}
	if len(r.Ingredients) != 1 {
		t.Errorf("ingredients changed by unchanged patch: %v", r.Ingredients)
	}

	// Replace swaps the set, creating missing tags.
	r.Touch()
	if err := s.UpdateRecipe(ctx, r, domain.ReplaceRelation([]string{"Dinner", "Healthy"}), domain.UnchangedRelation()); err != nil {
		t.Fatalf("UpdateRecipe replace: %v", err)
	}
	if len(r.Tags) != 2 || r.Tags[0].Name != "Dinner" || r.Tags[1].Name != "Healthy" {
		t.Errorf("tags after replace: %v", r.Tags)
	}
	// The replaced tag still exists, just unlinked.
	all, err := s.ListTags(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 tags to exist, got %d", len(all))
	}

	// Clear removes every link without touching the entities.
	r.Touch()
	if err := s.UpdateRecipe(ctx, r, domain.ClearRelation(), domain.ClearRelation()); err != nil {
		t.Fatalf("UpdateRecipe clear: %v", err)
	}
	if len(r.Tags) != 0 {
		t.Errorf("tags after clear: %v", r.Tags)
	}
	if len(r.Ingredients) != 0 {
		t.Errorf("ingredients after clear: %v", r.Ingredients)
	}
	ings, err := s.ListIngredients(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	if len(ings) != 1 {
		t.Errorf("expected Lettuce to survive the clear, got %d ingredients", len(ings))
	}
}

func TestListRecipesOrderingAndOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")
	mustCreateUser(t, s, "user-2", "bob@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	for i, spec := range []struct{ id, userID, title string }{
		{"recipe-1", "user-1", "Oldest"},
		{"recipe-2", "user-1", "Middle"},
		{"recipe-3", "user-1", "Newest"},
		{"recipe-4", "user-2", "Bob's"},
	} {
		r := makeTestRecipe(spec.id, spec.userID, spec.title)
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		r.UpdatedAt = r.CreatedAt
		if err := s.CreateRecipe(ctx, r, nil, nil); err != nil {
			t.Fatalf("CreateRecipe %s: %v", spec.id, err)
		}
	}

	recipes, err := s.ListRecipes(ctx, "user-1", store.RecipeFilter{})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}

	// Newest first, other owners excluded.
	want := []string{"Newest", "Middle", "Oldest"}
	if len(recipes) != len(want) {
		t.Fatalf("expected %d recipes, got %d", len(want), len(recipes))
	}
	for i, title := range want {
		if recipes[i].Title != title {
			t.Errorf("recipes[%d]: got %q, want %q", i, recipes[i].Title, title)
		}
	}
}

func TestListRecipesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")

	curry := makeTestRecipe("recipe-1", "user-1", "Curry")
	if err := s.CreateRecipe(ctx, curry, []string{"Dinner", "Spicy"}, []string{"Rice"}); err != nil {
		t.Fatalf("CreateRecipe curry: %v", err)
	}
	salad := makeTestRecipe("recipe-2", "user-1", "Salad")
	if err := s.CreateRecipe(ctx, salad, []string{"Lunch"}, []string{"Lettuce"}); err != nil {
		t.Fatalf("CreateRecipe salad: %v", err)
	}
	toast := makeTestRecipe("recipe-3", "user-1", "Toast")
	if err := s.CreateRecipe(ctx, toast, nil, nil); err != nil {
		t.Fatalf("CreateRecipe toast: %v", err)
	}

	tagID := func(r *domain.Recipe, name string) string {
		t.Helper()
		for _, tag := range r.Tags {
			if tag.Name == name {
				return tag.ID
			}
		}
		t.Fatalf("tag %q not on recipe %s", name, r.ID)
		return ""
	}

	// Single tag filter.
	got, err := s.ListRecipes(ctx, "user-1", store.RecipeFilter{TagIDs: []string{tagID(curry, "Dinner")}})
	if err != nil {
		t.Fatalf("ListRecipes tag filter: %v", err)
	}
	if len(got) != 1 || got[0].ID != "recipe-1" {
		t.Errorf("tag filter: got %v", got)
	}

	// OR within the tag dimension: two tag ids match two recipes.
	got, err = s.ListRecipes(ctx, "user-1", store.RecipeFilter{
		TagIDs: []string{tagID(curry, "Dinner"), tagID(salad, "Lunch")},
	})
	if err != nil {
		t.Fatalf("ListRecipes OR filter: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("OR filter: expected 2 recipes, got %d", len(got))
	}

	// A recipe matching several filter ids appears once.
	got, err = s.ListRecipes(ctx, "user-1", store.RecipeFilter{
		TagIDs: []string{tagID(curry, "Dinner"), tagID(curry, "Spicy")},
	})
	if err != nil {
		t.Fatalf("ListRecipes dedup: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("dedup: expected 1 recipe, got %d", len(got))
	}

	// AND across dimensions: Dinner tag plus Lettuce ingredient matches nothing.
	got, err = s.ListRecipes(ctx, "user-1", store.RecipeFilter{
		TagIDs:        []string{tagID(curry, "Dinner")},
		IngredientIDs: []string{salad.Ingredients[0].ID},
	})
	if err != nil {
		t.Fatalf("ListRecipes AND filter: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("AND filter: expected 0 recipes, got %d", len(got))
	}

	// Both dimensions matching the same recipe.
	got, err = s.ListRecipes(ctx, "user-1", store.RecipeFilter{
		TagIDs:        []string{tagID(curry, "Dinner")},
		IngredientIDs: []string{curry.Ingredients[0].ID},
	})
	if err != nil {
		t.Fatalf("ListRecipes both dims: %v", err)
	}
	if len(got) != 1 || got[0].ID != "recipe-1" {
		t.Errorf("both dims: got %v", got)
	}
}

func TestDeleteRecipeKeepsTagsAndIngredients(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")

	r := makeTestRecipe("recipe-1", "user-1", "Curry")
	if err := s.CreateRecipe(ctx, r, []string{"Dinner"}, []string{"Rice"}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	if err := s.DeleteRecipe(ctx, "user-1", "recipe-1"); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	if _, err := s.GetRecipe(ctx, "user-1", "recipe-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	tags, err := s.ListTags(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("expected tag to survive recipe delete, got %d", len(tags))
	}
	ings, err := s.ListIngredients(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	if len(ings) != 1 {
		t.Errorf("expected ingredient to survive recipe delete, got %d", len(ings))
	}
}

func TestDeleteRecipeCascadesJoinRowsOnAnyConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")

	r := makeTestRecipe("recipe-1", "user-1", "Curry")
	if err := s.CreateRecipe(ctx, r, []string{"Dinner"}, []string{"Rice"}); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	// Pin the rest of the pool so the delete below has to run on a
	// connection that did not exist when the store was opened.
	var pinned []*sql.Conn
	for i := 0; i < 3; i++ {
		c, err := s.db.Conn(ctx)
		if err != nil {
			t.Fatalf("pin connection %d: %v", i, err)
		}
		pinned = append(pinned, c)
	}
	err := s.DeleteRecipe(ctx, "user-1", "recipe-1")
	for _, c := range pinned {
		c.Close()
	}
	if err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}

	var joins int
	if err := s.db.QueryRow(`SELECT count(*) FROM recipe_tags WHERE recipe_id = ?`, "recipe-1").Scan(&joins); err != nil {
		t.Fatalf("count recipe_tags: %v", err)
	}
	if joins != 0 {
		t.Errorf("expected cascade to remove recipe_tags rows, %d left", joins)
	}
	if err := s.db.QueryRow(`SELECT count(*) FROM recipe_ingredients WHERE recipe_id = ?`, "recipe-1").Scan(&joins); err != nil {
		t.Fatalf("count recipe_ingredients: %v", err)
	}
	if joins != 0 {
		t.Errorf("expected cascade to remove recipe_ingredients rows, %d left", joins)
	}

	// With the join rows gone, the assigned-only listings must be empty.
	tags, err := s.ListTags(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("assigned-only tags after delete: got %d, want 0", len(tags))
	}
	ings, err := s.ListIngredients(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	if len(ings) != 0 {
		t.Errorf("assigned-only ingredients after delete: got %d, want 0", len(ings))
	}
}

func TestSetRecipeImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "user-1", "alice@example.com")

	r := makeTestRecipe("recipe-1", "user-1", "Pie")
	if err := s.CreateRecipe(ctx, r, nil, nil); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	prev, err := s.SetRecipeImage(ctx, "user-1", "recipe-1", "abc.jpg", "LKO2?U%2Tw=w]~RBVZRi};RPxuwH")
	if err != nil {
		t.Fatalf("SetRecipeImage: %v", err)
	}
	if prev != "" {
		t.Errorf("expected no previous image, got %q", prev)
	}

	got, err := s.GetRecipe(ctx, "user-1", "recipe-1")
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.ImagePath != "abc.jpg" {
		t.Errorf("ImagePath: got %q", got.ImagePath)
	}
	if !got.HasImage() {
		t.Error("HasImage: expected true")
	}

	// Replacing reports the old path so the file can be removed.
	prev, err = s.SetRecipeImage(ctx, "user-1", "recipe-1", "def.jpg", "")
	if err != nil {
		t.Fatalf("SetRecipeImage replace: %v", err)
	}
	if prev != "abc.jpg" {
		t.Errorf("previous: got %q, want abc.jpg", prev)
	}

	if _, err := s.SetRecipeImage(ctx, "user-1", "recipe-missing", "x.jpg", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
