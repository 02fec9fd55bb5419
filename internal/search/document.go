// Package search provides full-text recipe search using Bleve. Recipes
// are indexed with their tag and ingredient names denormalized so a
// single query covers everything a cook might remember about a dish.
package search

import (
	"github.com/recipeboxapp/recipebox-server/internal/domain"
)

// RecipeDocument is the document structure for the Bleve index.
type RecipeDocument struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	CreatedAt   int64    `json:"created_at"` // Unix millis
}

// FromRecipe builds a search document from a recipe with its relations
// loaded.
func FromRecipe(r *domain.Recipe) *RecipeDocument {
	doc := &RecipeDocument{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UnixMilli(),
	}
	for _, t := range r.Tags {
		doc.Tags = append(doc.Tags, t.Name)
	}
	for _, ing := range r.Ingredients {
		doc.Ingredients = append(doc.Ingredients, ing.Name)
	}
	return doc
}

// ToMap converts the document to a map with lowercase field names.
// Bleve defaults to Go struct field names, which would not match the
// index mapping.
func (d *RecipeDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"user_id":    d.UserID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.Ingredients) > 0 {
		m["ingredients"] = d.Ingredients
	}
	return m
}
