package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, title, time_minutes, price_cents, link, description, image_path, image_blurhash, created_at, updated_at`

// scanRecipe scans a row into a domain.Recipe. Tags and Ingredients are
// left nil; callers load them separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&r.PriceCents,
		&r.Link,
		&r.Description,
		&r.ImagePath,
		&r.ImageBlurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// loadRecipeRelations fills in the recipe's tag and ingredient sets.
func loadRecipeRelations(ctx context.Context, q querier, r *domain.Recipe) error {
	tags, err := getRecipeTags(ctx, q, r.ID)
	if err != nil {
		return err
	}
	ingredients, err := getRecipeIngredients(ctx, q, r.ID)
	if err != nil {
		return err
	}
	r.Tags = tags
	r.Ingredients = ingredients
	return nil
}

// resolveTagIDs turns a set of tag names into tag ids, creating missing
// tags for the owner as needed. Duplicate names collapse to one id.
func resolveTagIDs(ctx context.Context, q querier, userID string, names []string) ([]string, error) {
	var ids []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		t, err := findOrCreateTag(ctx, q, userID, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		if !seen[t.ID] {
			seen[t.ID] = true
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func resolveIngredientIDs(ctx context.Context, q querier, userID string, names []string) ([]string, error) {
	var ids []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		ing, err := findOrCreateIngredient(ctx, q, userID, name)
		if err != nil {
			return nil, fmt.Errorf("resolve ingredient %q: %w", name, err)
		}
		if !seen[ing.ID] {
			seen[ing.ID] = true
			ids = append(ids, ing.ID)
		}
	}
	return ids, nil
}

// CreateRecipe inserts a recipe together with its tag and ingredient
// links in a single transaction. Named tags and ingredients that the
// owner does not have yet are created on the fly. On return the
// recipe's Tags and Ingredients fields hold the linked entities.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe, tagNames, ingredientNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (id, user_id, title, time_minutes, price_cents, link, description, image_path, image_blurhash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		r.Title,
		r.TimeMinutes,
		r.PriceCents,
		r.Link,
		r.Description,
		r.ImagePath,
		r.ImageBlurHash,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert recipe: %w", err)
	}

	tagIDs, err := resolveTagIDs(ctx, tx, r.UserID, tagNames)
	if err != nil {
		return err
	}
	if err := setRecipeTags(ctx, tx, r.ID, tagIDs); err != nil {
		return err
	}

	ingredientIDs, err := resolveIngredientIDs(ctx, tx, r.UserID, ingredientNames)
	if err != nil {
		return err
	}
	if err := setRecipeIngredients(ctx, tx, r.ID, ingredientIDs); err != nil {
		return err
	}

	if err := loadRecipeRelations(ctx, tx, r); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecipe retrieves one of the owner's recipes with its tags and
// ingredients. Returns store.ErrNotFound if the recipe is absent or
// owned by someone else.
func (s *Store) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := loadRecipeRelations(ctx, s.db, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRecipe persists scalar changes and applies the tag and
// ingredient patches in a single transaction. An unchanged patch leaves
// the existing links alone; a replace patch resolves the new names and
// swaps the link set. If anything fails the whole update rolls back.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe, tags, ingredients domain.RelationPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET title = ?, time_minutes = ?, price_cents = ?, link = ?, description = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Title,
		r.TimeMinutes,
		r.PriceCents,
		r.Link,
		r.Description,
		formatTime(r.UpdatedAt),
		r.ID,
		r.UserID,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if !tags.IsUnchanged() {
		tagIDs, err := resolveTagIDs(ctx, tx, r.UserID, tags.Names())
		if err != nil {
			return err
		}
		if err := setRecipeTags(ctx, tx, r.ID, tagIDs); err != nil {
			return err
		}
	}

	if !ingredients.IsUnchanged() {
		ingredientIDs, err := resolveIngredientIDs(ctx, tx, r.UserID, ingredients.Names())
		if err != nil {
			return err
		}
		if err := setRecipeIngredients(ctx, tx, r.ID, ingredientIDs); err != nil {
			return err
		}
	}

	if err := loadRecipeRelations(ctx, tx, r); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteRecipe removes one of the owner's recipes. Join rows cascade;
// tags and ingredients survive. Returns store.ErrNotFound if the recipe
// is absent or owned by someone else.
func (s *Store) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListRecipes returns the owner's recipes, newest first. Filter ids
// within a dimension are OR-ed (any match qualifies); the tag and
// ingredient dimensions are AND-ed together. Each recipe appears once
// no matter how many filter ids it matches.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`)
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = recipes.id AND rt.tag_id IN (` +
			placeholders(len(filter.TagIDs)) + `))`)
		for _, tid := range filter.TagIDs {
			args = append(args, tid)
		}
	}

	if len(filter.IngredientIDs) > 0 {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = recipes.id AND ri.ingredient_id IN (` +
			placeholders(len(filter.IngredientIDs)) + `))`)
		for _, iid := range filter.IngredientIDs {
			args = append(args, iid)
		}
	}

	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range recipes {
		if err := loadRecipeRelations(ctx, s.db, r); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

// AllRecipes returns every recipe in the store with relations loaded,
// regardless of owner. Used to rebuild the search index at startup.
func (s *Store) AllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range recipes {
		if err := loadRecipeRelations(ctx, s.db, r); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

// SetRecipeImage records a recipe's stored image file and blurhash,
// returning the path of the image it replaced (empty if none) so the
// caller can remove the old file.
func (s *Store) SetRecipeImage(ctx context.Context, userID, recipeID, imagePath, blurHash string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var previous string
	err = tx.QueryRowContext(ctx,
		`SELECT image_path FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID).Scan(&previous)
	if err == sql.ErrNoRows {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE recipes SET image_path = ?, image_blurhash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		imagePath,
		blurHash,
		formatTime(time.Now().UTC()),
		recipeID,
		userID,
	)
	if err != nil {
		return "", fmt.Errorf("update recipe image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return previous, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
