// Package guard decides whether a user may perform an action on a resource.
package guard

import (
	"yatube/internal/models"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allowed Decision = iota
	Unauthorized
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Err converts a denial into the matching AppError. Allowed yields nil.
func (d Decision) Err() error {
	switch d {
	case Unauthorized:
		return models.NewUnauthorizedError("login required")
	case Forbidden:
		return models.NewForbiddenError("only the author can do this")
	default:
		return nil
	}
}

// Action names something a visitor tries to do.
type Action string

const (
	ViewPage      Action = "view"
	CreatePost    Action = "create_post"
	EditPost      Action = "edit_post"
	AddComment    Action = "add_comment"
	ViewFollowing Action = "view_following"
	Follow        Action = "follow"
	Unfollow      Action = "unfollow"
)

// Check decides action for actor, who is nil when anonymous.
// ownerID is the author of the targeted post and only matters for EditPost.
func Check(action Action, actor *models.User, ownerID uint) Decision {
	if action == ViewPage {
		return Allowed
	}
	if actor == nil {
		return Unauthorized
	}
	if action == EditPost && actor.ID != ownerID {
		return Forbidden
	}
	return Allowed
}
