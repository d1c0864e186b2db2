package repositories

import (
	"context"

	"user-directory.backend/internal/domain/entities"
)

// UserRepository defines user data operations
type UserRepository interface {
	// ExistsBy looks up field (id, username, email or phone) without locking.
	ExistsBy(ctx context.Context, field string, value interface{}) (entities.ExistsResult, error)
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	ApplyPatch(ctx context.Context, id string, patch *entities.UserPatch) error
	Ping(ctx context.Context) error
}
