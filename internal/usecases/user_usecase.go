package usecases

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"user-directory.backend/internal/domain/entities"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/domain/events"
	"user-directory.backend/internal/domain/repositories"
	"user-directory.backend/pkg/logger"
)

// Operation names reported to the RejectionObserver
const (
	OpCreate = "create"
	OpGet    = "get"
	OpUpdate = "update"
)

// RejectionObserver is told about every rejected request
type RejectionObserver interface {
	ObserveRejection(operation, field string)
}

// UserUsecase handles user directory business logic
type UserUsecase struct {
	userRepo  repositories.UserRepository
	uow       repositories.UnitOfWork
	validator *UserValidator
	publisher events.Publisher
	observer  RejectionObserver
}

// NewUserUsecase creates a new user usecase
func NewUserUsecase(
	userRepo repositories.UserRepository,
	uow repositories.UnitOfWork,
	publisher events.Publisher,
) *UserUsecase {
	return &UserUsecase{
		userRepo:  userRepo,
		uow:       uow,
		validator: NewUserValidator(userRepo),
		publisher: publisher,
	}
}

// SetRejectionObserver registers o for rejected requests
func (u *UserUsecase) SetRejectionObserver(o RejectionObserver) {
	u.observer = o
}

// CreateUser validates payload and inserts the user it describes
func (u *UserUsecase) CreateUser(ctx context.Context, payload entities.Payload) (*entities.User, error) {
	user, err := u.validator.ValidateCreate(ctx, payload)
	if err != nil {
		return nil, u.fail(ctx, OpCreate, err)
	}

	var created *entities.User
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.userRepo.Create(txCtx, user); err != nil {
			return err
		}
		stored, err := u.userRepo.GetByID(txCtx, user.ID)
		if err != nil {
			return err
		}
		created = stored
		return nil
	})
	if err != nil {
		return nil, u.fail(ctx, OpCreate, err)
	}

	logger.Info(ctx, "User created", zap.String("user_id", created.ID))
	u.publish(ctx, events.UserEvent{Type: events.UserCreated, UserID: created.ID})
	return created, nil
}

// GetUser fetches a user by identifier
func (u *UserUsecase) GetUser(ctx context.Context, rawID string) (*entities.User, error) {
	id, ok := entities.NormalizeIdentifier(rawID)
	if !ok {
		return nil, u.fail(ctx, OpGet, domainerrors.Reject(entities.FieldID, "invalid identifier"))
	}
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, u.fail(ctx, OpGet, err)
	}
	return user, nil
}

// UpdateUser validates payload and merges it into the stored user.
// Columns absent from payload keep their value.
func (u *UserUsecase) UpdateUser(ctx context.Context, rawID string, payload entities.Payload) (*entities.User, error) {
	id, patch, err := u.validator.ValidateUpdate(ctx, rawID, payload)
	if err != nil {
		return nil, u.fail(ctx, OpUpdate, err)
	}

	if patch.IsEmpty() {
		user, err := u.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, u.fail(ctx, OpUpdate, err)
		}
		return user, nil
	}

	var updated *entities.User
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if _, err := u.userRepo.GetByID(u.uow.WithLock(txCtx), id); err != nil {
			return err
		}
		if err := u.userRepo.ApplyPatch(txCtx, id, patch); err != nil {
			return err
		}
		stored, err := u.userRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		updated = stored
		return nil
	})
	if err != nil {
		return nil, u.fail(ctx, OpUpdate, err)
	}

	fields := patchFields(patch)
	logger.Info(ctx, "User updated", zap.String("user_id", id), zap.Strings("fields", fields))
	u.publish(ctx, events.UserEvent{Type: events.UserUpdated, UserID: id, Fields: fields})
	return updated, nil
}

// Ping reports whether the store is reachable
func (u *UserUsecase) Ping(ctx context.Context) error {
	return u.userRepo.Ping(ctx)
}

func (u *UserUsecase) fail(ctx context.Context, op string, err error) error {
	var rejection *domainerrors.Rejection
	switch {
	case errors.As(err, &rejection):
		if u.observer != nil {
			u.observer.ObserveRejection(op, rejection.Field)
		}
	case errors.Is(err, domainerrors.ErrNotFound):
	case errors.Is(err, domainerrors.ErrConflict):
		logger.Warn(ctx, "User write conflict", zap.String("operation", op), zap.Error(err))
	default:
		logger.Error(ctx, "User store failure", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func (u *UserUsecase) publish(ctx context.Context, event events.UserEvent) {
	if u.publisher == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := u.publisher.Publish(ctx, event); err != nil {
		logger.Error(ctx, "Failed to publish user event",
			zap.String("type", event.Type),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}
}

func patchFields(patch *entities.UserPatch) []string {
	cols := patch.Columns()
	fields := make([]string, 0, len(cols))
	for col := range cols {
		fields = append(fields, col)
	}
	sort.Strings(fields)
	return fields
}
