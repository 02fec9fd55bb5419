package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// maxImageUploadBytes caps recipe photo uploads at 10 MiB.
const maxImageUploadBytes = 10 * 1024 * 1024

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the user's recipes, newest first. Filterable by tag and ingredient ids.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/search",
		Summary:     "Search recipes",
		Description: "Full-text search over the user's recipes",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "createRecipe",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes",
		Summary:     "Create recipe",
		Description: "Creates a new recipe. Tag and ingredient names that don't exist yet are created.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe by ID",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Applies a partial update. An omitted tags or ingredients field leaves the relation untouched; an empty list clears it.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Description: "Deletes a recipe. Its tags and ingredients survive in the user's vocabulary.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadRecipeImage",
		Method:       http.MethodPost,
		Path:         "/api/v1/recipes/{id}/image",
		Summary:      "Upload recipe image",
		Description:  "Uploads a photo for a recipe, replacing any previous one",
		Tags:         []string{"Recipes"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: maxImageUploadBytes,
	}, s.handleUploadRecipeImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipeImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}/image",
		Summary:     "Get recipe image",
		Description: "Redirects to the recipe's photo",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipeImage)

	// Direct chi route for image streaming.
	s.router.Get("/images/{filename}", s.handleServeImage)
}

// === DTOs ===

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" validate:"omitempty,max=500" doc:"Comma-separated tag ids; a recipe matches if it has any of them"`
	Ingredients   string `query:"ingredients" validate:"omitempty,max=500" doc:"Comma-separated ingredient ids; a recipe matches if it has any of them"`
}

// RecipeResponse contains recipe data in API responses.
type RecipeResponse struct {
	ID            string               `json:"id" doc:"Recipe ID"`
	Title         string               `json:"title" doc:"Recipe title"`
	TimeMinutes   int                  `json:"time_minutes" doc:"Preparation time in minutes"`
	Price         string               `json:"price" doc:"Price as a decimal string, e.g. 5.50"`
	Link          string               `json:"link,omitempty" doc:"External link"`
	Description   string               `json:"description,omitempty" doc:"Free-form description"`
	Tags          []TagResponse        `json:"tags" doc:"Associated tags"`
	Ingredients   []IngredientResponse `json:"ingredients" doc:"Associated ingredients"`
	ImageURL      string               `json:"image_url,omitempty" doc:"URL of the uploaded photo"`
	ImageBlurHash string               `json:"image_blurhash,omitempty" doc:"BlurHash placeholder for the photo"`
	CreatedAt     time.Time            `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time            `json:"updated_at" doc:"Last update time"`
}

// ListRecipesResponse contains a list of recipes.
type ListRecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes" doc:"List of recipes"`
}

// ListRecipesOutput wraps the list recipes response for Huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// SearchRecipesInput contains parameters for recipe search.
type SearchRecipesInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" validate:"omitempty,max=200" doc:"Search query. Empty lists all recipes by relevance."`
	Limit         int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset        int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	Title       string   `json:"title" validate:"required,max=255" doc:"Recipe title"`
	TimeMinutes int      `json:"time_minutes,omitempty" validate:"gte=0" doc:"Preparation time in minutes"`
	Price       string   `json:"price,omitempty" doc:"Price as a decimal string, e.g. 5.50"`
	Link        string   `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Description string   `json:"description,omitempty" doc:"Free-form description"`
	Tags        []string `json:"tags,omitempty" doc:"Tag names"`
	Ingredients []string `json:"ingredients,omitempty" doc:"Ingredient names"`
}

// CreateRecipeInput wraps the create recipe request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateRecipeRequest
}

// RecipeOutput wraps the recipe response for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// GetRecipeInput contains parameters for getting a recipe.
type GetRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeRequest is the request body for updating a recipe.
type UpdateRecipeRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=255" doc:"Recipe title"`
	TimeMinutes *int      `json:"time_minutes,omitempty" validate:"omitempty,gte=0" doc:"Preparation time in minutes"`
	Price       *string   `json:"price,omitempty" doc:"Price as a decimal string"`
	Link        *string   `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Description *string   `json:"description,omitempty" doc:"Free-form description"`
	Tags        *[]string `json:"tags,omitempty" doc:"Full replacement tag names; empty list clears"`
	Ingredients *[]string `json:"ingredients,omitempty" doc:"Full replacement ingredient names; empty list clears"`
}

// UpdateRecipeInput wraps the update recipe request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          UpdateRecipeRequest
}

// DeleteRecipeInput contains parameters for deleting a recipe.
type DeleteRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UploadRecipeImageInput carries the raw photo bytes.
type UploadRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	RawBody       []byte
}

// GetRecipeImageInput contains parameters for fetching a recipe image.
type GetRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// ImageRedirectOutput redirects the client to the image file.
type ImageRedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

// StatusCode implements huma's status override.
func (o *ImageRedirectOutput) StatusCode() int {
	return o.Status
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.List(ctx, userID, service.RecipeFilter{
		TagIDs:        splitCommaIDs(input.Tags),
		IngredientIDs: splitCommaIDs(input.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: mapRecipeResponses(recipes)}}, nil
}

func (s *Server) handleSearchRecipes(ctx context.Context, input *SearchRecipesInput) (*ListRecipesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.Search(ctx, userID, input.Query, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: mapRecipeResponses(recipes)}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, userID, service.CreateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
		Description: input.Body.Description,
		Tags:        input.Body.Tags,
		Ingredients: input.Body.Ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *GetRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Update(ctx, userID, input.ID, service.UpdateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
		Description: input.Body.Description,
		Tags:        input.Body.Tags,
		Ingredients: input.Body.Ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *DeleteRecipeInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted"}}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("Image data is required")
	}

	recipe, err := s.services.Recipe.UploadImage(ctx, userID, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipeImage(ctx context.Context, input *GetRecipeImageInput) (*ImageRedirectOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	if !recipe.HasImage() {
		return nil, huma.Error404NotFound("Recipe has no image")
	}

	return &ImageRedirectOutput{
		Status:   http.StatusTemporaryRedirect,
		Location: "/images/" + recipe.ImagePath,
	}, nil
}

func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		http.Error(w, "filename required", http.StatusBadRequest)
		return
	}

	data, err := s.storage.Get(filename)
	if err != nil {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", imageContentType(filename))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// === Helpers ===

func imageContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".gif"):
		return "image/gif"
	case strings.HasSuffix(filename, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func mapRecipeResponse(r *domain.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:            r.ID,
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Price:         domain.FormatPrice(r.PriceCents),
		Link:          r.Link,
		Description:   r.Description,
		Tags:          make([]TagResponse, len(r.Tags)),
		Ingredients:   make([]IngredientResponse, len(r.Ingredients)),
		ImageBlurHash: r.ImageBlurHash,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.HasImage() {
		resp.ImageURL = "/images/" + r.ImagePath
	}
	for i, t := range r.Tags {
		resp.Tags[i] = mapTagResponse(&t)
	}
	for i, ing := range r.Ingredients {
		resp.Ingredients[i] = mapIngredientResponse(&ing)
	}
	return resp
}

func mapRecipeResponses(recipes []*domain.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = mapRecipeResponse(r)
	}
	return out
}
