package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sbilibin2017/recipe-share/internal/facades"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/validation"
)

// UserService serves profile pages and profile edits.
type UserService struct {
	reader  UserReader
	writer  UserWriter
	recipes RecipeReader
	images  ImageStore
}

// NewUserService creates a new UserService. A nil image store rejects uploads.
func NewUserService(reader UserReader, writer UserWriter, recipes RecipeReader, images ImageStore) *UserService {
	return &UserService{
		reader:  reader,
		writer:  writer,
		recipes: recipes,
		images:  images,
	}
}

func (s *UserService) user(ctx context.Context, username string) (models.UserDB, error) {
	user, err := s.reader.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Errorw("failed to load user", "username", username, "error", err)
		}
		return models.UserDB{}, notFound(err)
	}
	return user, nil
}

// Profile returns a user with a preview of their visible recipes and favorites.
func (s *UserService) Profile(ctx context.Context, viewer *models.Viewer, username string) (models.Profile, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return models.Profile{}, err
	}

	recipes, err := listPage(ctx, s.recipes, viewer, models.RecipeFilter{AuthorID: user.UserID, PageSize: ProfilePreview})
	if err != nil {
		return models.Profile{}, err
	}
	favorites, err := listPage(ctx, s.recipes, viewer, models.RecipeFilter{FavoritedBy: user.UserID, PageSize: ProfilePreview})
	if err != nil {
		return models.Profile{}, err
	}

	return models.Profile{User: user, Recipes: recipes.Recipes, Favorites: favorites.Recipes}, nil
}

// Recipes lists a user's recipes visible to the viewer.
func (s *UserService) Recipes(ctx context.Context, viewer *models.Viewer, username string, f models.RecipeFilter) (models.UserDB, models.RecipePage, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return models.UserDB{}, models.RecipePage{}, err
	}
	f.AuthorID = user.UserID
	page, err := listPage(ctx, s.recipes, viewer, f)
	return user, page, err
}

// Favorites lists a user's favorites visible to the viewer.
func (s *UserService) Favorites(ctx context.Context, viewer *models.Viewer, username string, f models.RecipeFilter) (models.UserDB, models.RecipePage, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return models.UserDB{}, models.RecipePage{}, err
	}
	f.FavoritedBy = user.UserID
	page, err := listPage(ctx, s.recipes, viewer, f)
	return user, page, err
}

// Me returns the viewer's own user record.
func (s *UserService) Me(ctx context.Context, viewer *models.Viewer) (models.UserDB, error) {
	if viewer == nil {
		return models.UserDB{}, ErrUnauthenticated
	}
	user, err := s.reader.GetByID(ctx, viewer.UserID)
	if err != nil {
		return models.UserDB{}, notFound(err)
	}
	return user, nil
}

// UpdateProfile edits the viewer's profile. A new picture is cropped to a
// square thumbnail before it is stored.
func (s *UserService) UpdateProfile(ctx context.Context, viewer *models.Viewer, in models.ProfileInput) (models.UserDB, error) {
	if viewer == nil {
		return models.UserDB{}, ErrUnauthenticated
	}

	in.FirstName = validation.CleanText(in.FirstName)
	in.LastName = validation.CleanText(in.LastName)
	in.Bio = validation.CleanText(in.Bio)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return models.UserDB{}, err
	}

	var picture *string
	if in.Picture != nil {
		if s.images == nil {
			return models.UserDB{}, validation.New("profile_picture", "Image uploads are disabled.")
		}
		url, err := s.images.Put(ctx, facades.Avatar, *in.Picture)
		if err != nil {
			if errors.Is(err, facades.ErrInvalidImage) {
				return models.UserDB{}, validation.New("profile_picture", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
			}
			logger.Log.Errorw("failed to store profile picture", "user_id", viewer.UserID, "error", err)
			return models.UserDB{}, err
		}
		picture = &url
	}

	user, err := s.writer.UpdateProfile(ctx, viewer.UserID, in, picture)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.UserDB{}, conflict(err, "user")
		}
		logger.Log.Errorw("failed to update profile", "user_id", viewer.UserID, "error", err)
		return models.UserDB{}, notFound(err)
	}
	return user, nil
}
