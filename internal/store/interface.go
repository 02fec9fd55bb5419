package store

import (
	"context"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
)

// RecipeFilter narrows recipe listings. Within a dimension the ids are
// OR-ed; across dimensions the filters are AND-ed. Empty slices mean
// the dimension is unfiltered.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// Store is the persistence contract. All operations are scoped to a
// single owner: callers pass the acting user's id and never see rows
// belonging to anyone else.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Recipes
	CreateRecipe(ctx context.Context, recipe *domain.Recipe, tagNames, ingredientNames []string) error
	GetRecipe(ctx context.Context, userID, id string) (*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe, tags, ingredients domain.RelationPatch) error
	DeleteRecipe(ctx context.Context, userID, id string) error
	ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error)
	AllRecipes(ctx context.Context) ([]*domain.Recipe, error)
	SetRecipeImage(ctx context.Context, userID, id, imagePath, blurHash string) (previousPath string, err error)

	// Tags
	FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, error)
	GetTag(ctx context.Context, userID, id string) (*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	DeleteTag(ctx context.Context, userID, id string) error
	ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error)

	// Ingredients
	FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, error)
	GetIngredient(ctx context.Context, userID, id string) (*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, ingredient *domain.Ingredient) error
	DeleteIngredient(ctx context.Context, userID, id string) error
	ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error)

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	Close() error
}
