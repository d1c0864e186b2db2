package usecases_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"user-directory.backend/internal/domain/entities"
	"user-directory.backend/internal/domain/events"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	args := m.Called(ctx)
	return args.Get(0).(context.Context)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) ExistsBy(ctx context.Context, field string, value interface{}) (entities.ExistsResult, error) {
	args := m.Called(ctx, field, value)
	return args.Get(0).(entities.ExistsResult), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) ApplyPatch(ctx context.Context, id string, patch *entities.UserPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockUserRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Mock Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.UserEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) ObserveRejection(operation, field string) {
	r.calls = append(r.calls, operation+":"+field)
}
