package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"test1@EXAMPLE.com", "test1@example.com"},
		{"Test2@Example.com", "Test2@example.com"},
		{"TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"test4@Example.COM", "test4@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"no-at-sign", "no-at-sign"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.input))
		})
	}
}

func TestEmailKey(t *testing.T) {
	// Case-insensitive key collapses local-part case too.
	assert.Equal(t, "test@example.com", EmailKey("Test@EXAMPLE.com"))
	assert.Equal(t, EmailKey("USER@example.com"), EmailKey("user@Example.COM"))
}

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  Vegan  ", "Vegan"},
		{"collapses inner runs", "Feta   cheese", "Feta cheese"},
		{"preserves case", "Thai", "Thai"},
		{"tabs and newlines", "Olive\toil\n", "Olive oil"},
		{"empty stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}
