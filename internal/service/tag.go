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

// TagService manages a user's tag vocabulary. Tags are mostly created
// implicitly through recipes; this service covers the direct
// list/rename/delete operations.
type TagService struct {
	store       store.Store
	searchIndex *search.SearchIndex
	validate    *validation.Validator
	logger      *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(st store.Store, searchIndex *search.SearchIndex, validate *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{
		store:       st,
		searchIndex: searchIndex,
		validate:    validate,
		logger:      logger,
	}
}

// NameRequest carries a tag or ingredient name.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List returns the user's tags, name descending. With assignedOnly,
// only tags on at least one recipe come back.
func (s *TagService) List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Get returns one of the user's tags.
func (s *TagService) Get(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// Create resolves a tag by name, creating it if the user doesn't have
// it yet. Resolving an existing name returns the existing tag.
func (s *TagService) Create(ctx context.Context, userID string, req NameRequest) (*domain.Tag, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	name := normalize.Name(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("tag name cannot be blank")
	}

	tag, err := s.store.FindOrCreateTag(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("resolve tag: %w", err)
	}
	return tag, nil
}

// Rename changes a tag's name and refreshes the search documents of the
// recipes carrying it.
func (s *TagService) Rename(ctx context.Context, userID, tagID string, req NameRequest) (*domain.Tag, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	name := normalize.Name(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("tag name cannot be blank")
	}

	tag, err := s.Get(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}

	tag.Name = name
	tag.Touch()
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.AlreadyExists("a tag with that name already exists")
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	s.reindexTagged(ctx, userID, tagID)
	return tag, nil
}

// Delete removes a tag from the user's vocabulary. Recipes that carried
// it lose the link but are otherwise untouched.
func (s *TagService) Delete(ctx context.Context, userID, tagID string) error {
	// Capture the affected recipes before the links disappear.
	affected, err := s.store.ListRecipes(ctx, userID, store.RecipeFilter{TagIDs: []string{tagID}})
	if err != nil {
		return fmt.Errorf("list tagged recipes: %w", err)
	}

	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}

	for _, r := range affected {
		recipe, err := s.store.GetRecipe(ctx, userID, r.ID)
		if err != nil {
			continue
		}
		if err := s.searchIndex.IndexRecipe(search.FromRecipe(recipe)); err != nil {
			s.logger.Warn("failed to reindex recipe after tag delete", "recipe_id", r.ID, "error", err)
		}
	}
	return nil
}

// reindexTagged refreshes search documents for the recipes carrying a tag.
func (s *TagService) reindexTagged(ctx context.Context, userID, tagID string) {
	affected, err := s.store.ListRecipes(ctx, userID, store.RecipeFilter{TagIDs: []string{tagID}})
	if err != nil {
		s.logger.Warn("failed to list tagged recipes for reindex", "tag_id", tagID, "error", err)
		return
	}
	for _, r := range affected {
		if err := s.searchIndex.IndexRecipe(search.FromRecipe(r)); err != nil {
			s.logger.Warn("failed to reindex recipe", "recipe_id", r.ID, "error", err)
		}
	}
}
