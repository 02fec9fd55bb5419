// Package normalize provides utilities for normalizing user-supplied data.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Matches runs of whitespace for collapsing.
//
//nolint:gochecknoglobals // Static pattern, compiled once
var whitespaceRe = regexp.MustCompile(`\s+`)

// Email normalizes an email address for storage.
// The domain part is lowercased; the local part is preserved as entered.
// "Test2@Example.COM" -> "Test2@example.com".
//
// Returns the input unchanged if it doesn't contain exactly one "@" -
// format validation is the request layer's job, not ours.
func Email(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at+1] + strings.ToLower(email[at+1:])
}

// EmailKey returns the fully-lowercased form of an email, used for
// uniqueness lookups. Two addresses differing only in case are the same
// account even though we preserve the local part's case for display.
func EmailKey(email string) string {
	return strings.ToLower(Email(email))
}

// Name canonicalizes a tag or ingredient name.
// Unicode is NFKC-normalized so visually identical names compare equal,
// surrounding whitespace is trimmed, and inner runs collapse to one space.
// Case is preserved: "Thai" and "thai" are distinct names, matching how
// cooks actually label things.
func Name(name string) string {
	name = norm.NFKC.String(name)
	name = strings.TrimSpace(name)
	name = whitespaceRe.ReplaceAllString(name, " ")
	return name
}
