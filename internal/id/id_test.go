package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for range 1000 {
		v, err := Generate("recipe")
		require.NoError(t, err)
		require.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestGenerateFormat(t *testing.T) {
	for _, prefix := range []string{"user", "recipe", "tag", "ing", "sess"} {
		v, err := Generate(prefix)
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(v, prefix+"-"))
		assert.Len(t, v, len(prefix)+1+21)

		for _, r := range strings.TrimPrefix(v, prefix+"-") {
			urlSafe := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
				(r >= '0' && r <= '9') || r == '_' || r == '-'
			assert.True(t, urlSafe, "character %c in %s", r, v)
		}
	}
}

func TestMustGenerate(t *testing.T) {
	v := MustGenerate("tag")
	assert.True(t, strings.HasPrefix(v, "tag-"))
}
