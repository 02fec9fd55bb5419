package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Recipe represents a recipe owned by a user.
// Tags and Ingredients hold the associated entities, always owned by the
// same user as the recipe itself.
type Recipe struct {
	ID            string       `json:"id"`
	UserID        string       `json:"-"`
	Title         string       `json:"title"`
	TimeMinutes   int          `json:"time_minutes"`
	PriceCents    int64        `json:"-"` // Exposed on the wire as a decimal string
	Link          string       `json:"link,omitempty"`
	Description   string       `json:"description,omitempty"`
	ImagePath     string       `json:"-"` // Filesystem name of the uploaded image, if any
	ImageBlurHash string       `json:"image_blurhash,omitempty"`
	Tags          []Tag        `json:"tags"`
	Ingredients   []Ingredient `json:"ingredients"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// HasImage returns true if an image has been uploaded for this recipe.
func (r *Recipe) HasImage() bool {
	return r.ImagePath != ""
}

// TagIDs returns the ids of the associated tags.
func (r *Recipe) TagIDs() []string {
	ids := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		ids[i] = t.ID
	}
	return ids
}

// IngredientIDs returns the ids of the associated ingredients.
func (r *Recipe) IngredientIDs() []string {
	ids := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ids[i] = ing.ID
	}
	return ids
}

// ParsePrice converts a decimal price string like "5.50" into cents.
// At most two fractional digits are accepted; negative prices are rejected.
// Storing cents keeps price arithmetic and ordering exact.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("price cannot be negative: %q", s)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("price has more than two decimal places: %q", s)
	}
	// Both parts must be bare digits. ParseInt alone would also accept
	// a sign inside the fraction, turning "5.-1" into 499.
	for _, part := range []string{whole, frac} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return 0, fmt.Errorf("invalid price %q", s)
			}
		}
	}
	// Pad "5.5" to "5.50".
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}

	var f int64
	if frac != "00" {
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q: %w", s, err)
		}
	}

	return w*100 + f, nil
}

// FormatPrice renders cents back into the wire decimal form, e.g. 550 -> "5.50".
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
