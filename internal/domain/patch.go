package domain

// RelationPatch expresses the three-way update semantics for a recipe's
// tag or ingredient associations:
//
//   - Unchanged: the field was absent from the payload; leave links alone.
//   - Clear: an empty list was sent; remove every link.
//   - Replace: a non-empty list was sent; remove every link, then attach
//     the named set (full replacement, not a merge).
//
// Modeling this as an explicit type rather than "nil slice vs empty
// slice" keeps the contract visible at call sites and type-checkable.
type RelationPatch struct {
	names   []string
	replace bool
}

// UnchangedRelation returns a patch that leaves associations untouched.
func UnchangedRelation() RelationPatch {
	return RelationPatch{}
}

// ClearRelation returns a patch that removes all associations.
func ClearRelation() RelationPatch {
	return RelationPatch{replace: true}
}

// ReplaceRelation returns a patch that replaces associations with the
// named set. An empty set behaves exactly like ClearRelation.
func ReplaceRelation(names []string) RelationPatch {
	return RelationPatch{names: names, replace: true}
}

// IsUnchanged returns true if the patch leaves associations untouched.
func (p RelationPatch) IsUnchanged() bool {
	return !p.replace
}

// Names returns the replacement set. Empty means clear.
func (p RelationPatch) Names() []string {
	return p.names
}

// RecipePatch carries a partial update for a recipe.
// Nil scalar fields are left unchanged. The owner is deliberately not
// representable here: ownership is immutable after creation.
type RecipePatch struct {
	Title       *string
	TimeMinutes *int
	PriceCents  *int64
	Link        *string
	Description *string

	Tags        RelationPatch
	Ingredients RelationPatch
}
