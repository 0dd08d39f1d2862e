package services

import (
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

// Action is a mutation guarded by ownership.
type Action string

const (
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
)

// AuthorizeMutation allows action only when actor owns the object.
func AuthorizeMutation(actor *models.Viewer, ownerID uuid.UUID, action Action) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.UserID != ownerID {
		logger.Log.Infow("mutation denied", "action", action, "actor", actor.UserID, "owner", ownerID)
		return ErrPermissionDenied
	}
	return nil
}

// AuthorizeStaff allows operator actions.
func AuthorizeStaff(actor *models.Viewer) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.IsStaff {
		return ErrPermissionDenied
	}
	return nil
}

// SystemActor is the identity the operator CLI acts as.
var SystemActor = &models.Viewer{Username: "system", IsStaff: true}
