// Package id generates prefixed NanoID identifiers, e.g.
// "recipe-V1StGXR8_Z5jdHi6B-myT". The prefix makes an id's entity kind
// obvious in logs and database dumps.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns a new id with the given prefix. The random part is a
// 21-character URL-safe NanoID.
func Generate(prefix string) (string, error) {
	nano, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nano, nil
}

// MustGenerate is Generate, panicking on failure. Generation only fails
// when the system entropy source is unavailable.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(err)
	}
	return v
}
