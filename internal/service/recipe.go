package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/id"
	"github.com/recipeboxapp/recipebox-server/internal/media/images"
	"github.com/recipeboxapp/recipebox-server/internal/normalize"
	"github.com/recipeboxapp/recipebox-server/internal/search"
	"github.com/recipeboxapp/recipebox-server/internal/store"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// RecipeService implements recipe CRUD, filtering, image upload and
// full-text search. Every operation is scoped to the acting user.
type RecipeService struct {
	store       store.Store
	searchIndex *search.SearchIndex
	processor   *images.Processor
	storage     *images.Storage
	validate    *validation.Validator
	logger      *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	st store.Store,
	searchIndex *search.SearchIndex,
	processor *images.Processor,
	storage *images.Storage,
	validate *validation.Validator,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:       st,
		searchIndex: searchIndex,
		processor:   processor,
		storage:     storage,
		validate:    validate,
		logger:      logger,
	}
}

// CreateRecipeRequest contains a new recipe. Tags and ingredients are
// referenced by name; unknown names are created for the owner.
type CreateRecipeRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	TimeMinutes int      `json:"time_minutes" validate:"gte=0"`
	Price       string   `json:"price,omitempty"`
	Link        string   `json:"link,omitempty" validate:"max=255"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// UpdateRecipeRequest carries a partial recipe update. Nil scalar
// fields are untouched; a nil Tags or Ingredients slice leaves the
// relation alone while an empty one clears it.
type UpdateRecipeRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=255"`
	TimeMinutes *int      `json:"time_minutes,omitempty" validate:"omitempty,gte=0"`
	Price       *string   `json:"price,omitempty"`
	Link        *string   `json:"link,omitempty" validate:"omitempty,max=255"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Ingredients *[]string `json:"ingredients,omitempty"`
}

// RecipeFilter narrows List output; ids within a dimension are OR-ed,
// the dimensions AND-ed.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// normalizeNames canonicalizes a list of tag or ingredient names,
// rejecting names that normalize to nothing.
func normalizeNames(kind string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := normalize.Name(name)
		if n == "" {
			return nil, domainerrors.Validationf("%s name cannot be blank", kind)
		}
		out = append(out, n)
	}
	return out, nil
}

// Create validates and stores a new recipe for the user.
func (s *RecipeService) Create(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	priceCents, err := domain.ParsePrice(req.Price)
	if err != nil {
		return nil, domainerrors.Validationf("invalid price: %v", err)
	}

	tagNames, err := normalizeNames("tag", req.Tags)
	if err != nil {
		return nil, err
	}
	ingredientNames, err := normalizeNames("ingredient", req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipeID, err := id.Generate("recipe")
	if err != nil {
		return nil, fmt.Errorf("generate recipe id: %w", err)
	}

	now := time.Now().UTC()
	recipe := &domain.Recipe{
		ID:          recipeID,
		UserID:      userID,
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		PriceCents:  priceCents,
		Link:        req.Link,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateRecipe(ctx, recipe, tagNames, ingredientNames); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.indexRecipe(recipe)
	s.logger.Info("recipe created", "recipe_id", recipe.ID, "user_id", userID)

	return recipe, nil
}

// Get returns one of the user's recipes.
func (s *RecipeService) Get(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// List returns the user's recipes, newest first, optionally filtered.
func (s *RecipeService) List(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, store.RecipeFilter{
		TagIDs:        filter.TagIDs,
		IngredientIDs: filter.IngredientIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Update applies a partial update. The scalar assignments and any
// relation replacement land atomically; on error the recipe is
// unchanged.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID string, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, domainerrors.Validation("title cannot be blank")
		}
		recipe.Title = *req.Title
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		priceCents, err := domain.ParsePrice(*req.Price)
		if err != nil {
			return nil, domainerrors.Validationf("invalid price: %v", err)
		}
		recipe.PriceCents = priceCents
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}

	tagPatch := domain.UnchangedRelation()
	if req.Tags != nil {
		names, err := normalizeNames("tag", *req.Tags)
		if err != nil {
			return nil, err
		}
		tagPatch = domain.ReplaceRelation(names)
	}
	ingredientPatch := domain.UnchangedRelation()
	if req.Ingredients != nil {
		names, err := normalizeNames("ingredient", *req.Ingredients)
		if err != nil {
			return nil, err
		}
		ingredientPatch = domain.ReplaceRelation(names)
	}

	recipe.Touch()
	if err := s.store.UpdateRecipe(ctx, recipe, tagPatch, ingredientPatch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	s.indexRecipe(recipe)

	return recipe, nil
}

// Delete removes a recipe, its search document and its stored image.
// Tags and ingredients survive.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	if recipe.HasImage() {
		if err := s.storage.Delete(recipe.ImagePath); err != nil {
			s.logger.Warn("failed to delete recipe image", "recipe_id", recipeID, "error", err)
		}
	}
	if err := s.searchIndex.DeleteRecipe(recipeID); err != nil {
		s.logger.Warn("failed to remove recipe from search index", "recipe_id", recipeID, "error", err)
	}

	s.logger.Info("recipe deleted", "recipe_id", recipeID, "user_id", userID)
	return nil
}

// UploadImage validates an uploaded photo, stores it, and attaches it
// to the recipe, replacing and removing any previous photo.
func (s *RecipeService) UploadImage(ctx context.Context, userID, recipeID string, data []byte) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	filename, blurHash, err := s.processor.Process(data)
	if err != nil {
		return nil, domainerrors.Validationf("invalid image: %v", err)
	}

	previous, err := s.store.SetRecipeImage(ctx, userID, recipeID, filename, blurHash)
	if err != nil {
		// The orphaned file is unreachable; clean it up.
		if removeErr := s.storage.Delete(filename); removeErr != nil {
			s.logger.Warn("failed to remove orphaned image", "filename", filename, "error", removeErr)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("set recipe image: %w", err)
	}

	if previous != "" && previous != filename {
		if err := s.storage.Delete(previous); err != nil {
			s.logger.Warn("failed to delete replaced image", "filename", previous, "error", err)
		}
	}

	recipe.ImagePath = filename
	recipe.ImageBlurHash = blurHash
	s.logger.Info("recipe image uploaded", "recipe_id", recipeID, "filename", filename)

	return recipe, nil
}

// Image returns the stored photo bytes for a recipe along with its
// filename.
func (s *RecipeService) Image(ctx context.Context, userID, recipeID string) ([]byte, string, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, "", err
	}
	if !recipe.HasImage() {
		return nil, "", domainerrors.NotFound("recipe has no image")
	}

	data, err := s.storage.Get(recipe.ImagePath)
	if err != nil {
		return nil, "", domainerrors.NotFound("recipe image not found")
	}
	return data, recipe.ImagePath, nil
}

// Search runs a full-text query over the user's recipes and hydrates
// the hits from the store.
func (s *RecipeService) Search(ctx context.Context, userID, query string, limit, offset int) ([]*domain.Recipe, error) {
	params := search.DefaultSearchParams()
	params.UserID = userID
	params.Query = query
	if limit > 0 {
		params.Limit = limit
	}
	params.Offset = offset

	result, err := s.searchIndex.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	recipes := make([]*domain.Recipe, 0, len(result.Hits))
	for _, hit := range result.Hits {
		recipe, err := s.store.GetRecipe(ctx, userID, hit.ID)
		if err != nil {
			// The index can briefly trail the store; skip ghosts.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("hydrate search hit: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

// ReindexAll rebuilds the search index from the store. Called at
// startup so index and store never drift for long.
func (s *RecipeService) ReindexAll(ctx context.Context) error {
	recipes, err := s.store.AllRecipes(ctx)
	if err != nil {
		return fmt.Errorf("list recipes for reindex: %w", err)
	}
	if len(recipes) == 0 {
		return nil
	}

	docs := make([]*search.RecipeDocument, 0, len(recipes))
	for _, r := range recipes {
		docs = append(docs, search.FromRecipe(r))
	}
	return s.searchIndex.IndexRecipes(docs)
}

// indexRecipe updates the search document for a recipe. Indexing is
// best effort; the store remains the source of truth.
func (s *RecipeService) indexRecipe(recipe *domain.Recipe) {
	if err := s.searchIndex.IndexRecipe(search.FromRecipe(recipe)); err != nil {
		s.logger.Warn("failed to index recipe", "recipe_id", recipe.ID, "error", err)
	}
}
