package services

import "github.com/sbilibin2017/recipe-share/internal/models"

// CanView reports whether viewer may see the recipe. A hidden recipe must be
// reported to the caller exactly like a missing one.
func CanView(recipe models.RecipeDB, viewer *models.Viewer) bool {
	if recipe.Status == models.StatusPublished {
		return true
	}
	return viewer != nil && viewer.UserID == recipe.AuthorID
}
