package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"user-directory.backend/internal/domain/entities"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/infrastructure/models"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ExistsBy checks whether a user holds value in the given unique column.
// Empty contact values never match: they are stored as NULL.
func (r *UserRepository) ExistsBy(ctx context.Context, field string, value interface{}) (entities.ExistsResult, error) {
	spec, ok := entities.LookupField(field)
	if !ok || !spec.Unique {
		return entities.ExistsResult{}, fmt.Errorf("%w: %s is not a unique field", domainerrors.ErrInvalidInput, field)
	}

	var key string
	if spec.Kind == entities.KindIdentifier {
		id, valid := entities.NormalizeIdentifier(value)
		if !valid {
			return entities.ExistsResult{State: entities.Malformed}, nil
		}
		key = id
	} else {
		s, isString := value.(string)
		if !isString {
			return entities.ExistsResult{State: entities.Malformed}, nil
		}
		if s == "" {
			return entities.ExistsResult{State: entities.NotFound}, nil
		}
		key = s
	}

	var ids []string
	err := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.User{}).
		Where(spec.Column+" = ?", key).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return entities.ExistsResult{}, translateError(err)
	}
	if len(ids) == 0 {
		return entities.ExistsResult{State: entities.NotFound}, nil
	}
	return entities.ExistsResult{State: entities.Found, OwnerID: ids[0]}, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	m := &models.User{
		ID:           user.ID,
		Username:     user.Username.Ptr(),
		Email:        user.Email.Ptr(),
		Phone:        user.Phone.Ptr(),
		Gender:       user.Gender,
		GenderSearch: user.GenderSearch,
		Balance:      user.Balance,
		Birthday:     user.Birthday,
	}

	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	user.CreatedAt = m.CreatedAt
	user.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m), nil
}

// ApplyPatch overwrites only the columns named by patch
func (r *UserRepository) ApplyPatch(ctx context.Context, id string, patch *entities.UserPatch) error {
	updates := patch.Columns()
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()

	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Ping checks that the store is reachable
func (r *UserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return translateError(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return translateError(err)
	}
	return nil
}

func (r *UserRepository) toEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:           m.ID,
		Username:     null.StringFromPtr(m.Username),
		Email:        null.StringFromPtr(m.Email),
		Phone:        null.StringFromPtr(m.Phone),
		Gender:       m.Gender,
		GenderSearch: m.GenderSearch,
		Balance:      m.Balance,
		Birthday:     m.Birthday,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
