package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recipeboxapp/recipebox-server/internal/auth"
	"github.com/recipeboxapp/recipebox-server/internal/media/images"
	"github.com/recipeboxapp/recipebox-server/internal/search"
	"github.com/recipeboxapp/recipebox-server/internal/store/sqlite"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// testEnv bundles the real service stack over temporary storage.
type testEnv struct {
	auth        *AuthService
	recipes     *RecipeService
	tags        *TagService
	ingredients *IngredientService
	storage     *images.Storage
	index       *search.SearchIndex
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: tmpDir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	storage, err := images.NewStorage(tmpDir)
	require.NoError(t, err)
	processor := images.NewProcessor(storage, logger)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(authKey, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	validate := validation.New()

	return &testEnv{
		auth:        NewAuthService(st, tokenService, validate, logger),
		recipes:     NewRecipeService(st, index, processor, storage, validate, logger),
		tags:        NewTagService(st, index, validate, logger),
		ingredients: NewIngredientService(st, index, validate, logger),
		storage:     storage,
		index:       index,
	}
}

// registerTestUser registers an account and returns the auth response.
func registerTestUser(t *testing.T, env *testEnv, email string) *AuthResponse {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "testpass123",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return resp
}
