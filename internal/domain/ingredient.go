package domain

import "time"

// Ingredient represents a user-owned ingredient referenced by recipes.
// Like tags, ingredients are unique per owner by name and are created
// lazily the first time a recipe mentions them.
type Ingredient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (i *Ingredient) Touch() {
	i.UpdatedAt = time.Now().UTC()
}
