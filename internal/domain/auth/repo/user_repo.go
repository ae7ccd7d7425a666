package repo

import (
	"context"

	"github.com/feelflow/auth-service/internal/domain/auth/model"
	"github.com/google/uuid"
)

// UserRepo is the credential store. Lookups return errors.ErrNotFound when no
// row matches; CreateUser returns errors.ErrAlreadyExists on a taken email.
type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetProfileByID(ctx context.Context, id uuid.UUID) (model.Profile, error)
}
