package models

// ToggleKind names a presence/absence edge between a user and a recipe.
type ToggleKind string

const (
	ToggleLike     ToggleKind = "like"
	ToggleFavorite ToggleKind = "favorite"
)

// ToggleState is the outcome of a toggle.
type ToggleState string

const (
	ToggleAdded   ToggleState = "added"
	ToggleRemoved ToggleState = "removed"
)

// ToggleResult reports the new edge state and the recipe's fresh total for that kind.
type ToggleResult struct {
	Kind   ToggleKind
	State  ToggleState
	Total  int
	Recipe Recipe
}

// Active reports whether the edge exists after the toggle.
func (r ToggleResult) Active() bool {
	return r.State == ToggleAdded
}
