package domain

import "time"

// Tag represents a user-owned label for categorizing recipes.
// Name is unique per owner; two users can each have their own "Vegan"
// tag without interfering with each other.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"` // Owner; implied by the authenticated request
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now().UTC()
}
