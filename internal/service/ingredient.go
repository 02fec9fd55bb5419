package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/normalize"
	"github.com/recipeboxapp/recipebox-server/internal/search"
	"github.com/recipeboxapp/recipebox-server/internal/store"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// IngredientService manages a user's ingredient vocabulary, mirroring
// TagService.
type IngredientService struct {
	store       store.Store
	searchIndex *search.SearchIndex
	validate    *validation.Validator
	logger      *slog.Logger
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(st store.Store, searchIndex *search.SearchIndex, validate *validation.Validator, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		store:       st,
		searchIndex: searchIndex,
		validate:    validate,
		logger:      logger,
	}
}

// List returns the user's ingredients, name descending, optionally only
// those used by at least one recipe.
func (s *IngredientService) List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	ingredients, err := s.store.ListIngredients(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// Get returns one of the user's ingredients.
func (s *IngredientService) Get(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	ing, err := s.store.GetIngredient(ctx, userID, ingredientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ing, nil
}

// Create resolves an ingredient by name, creating it if needed.
func (s *IngredientService) Create(ctx context.Context, userID string, req NameRequest) (*domain.Ingredient, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	name := normalize.Name(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("ingredient name cannot be blank")
	}

	ing, err := s.store.FindOrCreateIngredient(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("resolve ingredient: %w", err)
	}
	return ing, nil
}

// Rename changes an ingredient's name and refreshes the affected search
// documents.
func (s *IngredientService) Rename(ctx context.Context, userID, ingredientID string, req NameRequest) (*domain.Ingredient, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	name := normalize.Name(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("ingredient name cannot be blank")
	}

	ing, err := s.Get(ctx, userID, ingredientID)
	if err != nil {
		return nil, err
	}

	ing.Name = name
	ing.Touch()
	if err := s.store.UpdateIngredient(ctx, ing); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.AlreadyExists("an ingredient with that name already exists")
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("update ingredient: %w", err)
	}

	s.reindexUsing(ctx, userID, ingredientID)
	return ing, nil
}

// Delete removes an ingredient; recipes that used it lose the link only.
func (s *IngredientService) Delete(ctx context.Context, userID, ingredientID string) error {
	affected, err := s.store.ListRecipes(ctx, userID, store.RecipeFilter{IngredientIDs: []string{ingredientID}})
	if err != nil {
		return fmt.Errorf("list recipes using ingredient: %w", err)
	}

	if err := s.store.DeleteIngredient(ctx, userID, ingredientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("ingredient not found")
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}

	for _, r := range affected {
		recipe, err := s.store.GetRecipe(ctx, userID, r.ID)
		if err != nil {
			continue
		}
		if err := s.searchIndex.IndexRecipe(search.FromRecipe(recipe)); err != nil {
			s.logger.Warn("failed to reindex recipe after ingredient delete", "recipe_id", r.ID, "error", err)
		}
	}
	return nil
}

func (s *IngredientService) reindexUsing(ctx context.Context, userID, ingredientID string) {
	affected, err := s.store.ListRecipes(ctx, userID, store.RecipeFilter{IngredientIDs: []string{ingredientID}})
	if err != nil {
		s.logger.Warn("failed to list recipes for reindex", "ingredient_id", ingredientID, "error", err)
		return
	}
	for _, r := range affected {
		if err := s.searchIndex.IndexRecipe(search.FromRecipe(r)); err != nil {
			s.logger.Warn("failed to reindex recipe", "recipe_id", r.ID, "error", err)
		}
	}
}
