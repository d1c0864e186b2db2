package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// User represents a user entity
type User struct {
	ID           string      `json:"id"`
	Username     null.String `json:"username"`
	Email        null.String `json:"email"`
	Phone        null.String `json:"phone"`
	Gender       string      `json:"gender"`
	GenderSearch string      `json:"gender_search"`
	Balance      int64       `json:"balance"`
	Birthday     time.Time   `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// UserPatch is a validated set of columns to overwrite on an existing user.
// A nil pointer leaves the column untouched. For the contact columns a
// non-nil invalid null.String clears the column.
type UserPatch struct {
	Username     *null.String
	Email        *null.String
	Phone        *null.String
	Gender       *string
	GenderSearch *string
	Balance      *int64
	Birthday     *time.Time
}

// IsEmpty reports whether the patch overwrites nothing.
func (p *UserPatch) IsEmpty() bool {
	return p == nil || (p.Username == nil &&
		p.Email == nil &&
		p.Phone == nil &&
		p.Gender == nil &&
		p.GenderSearch == nil &&
		p.Balance == nil &&
		p.Birthday == nil)
}

// Columns returns the column/value pairs the patch writes.
func (p *UserPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p == nil {
		return cols
	}
	if p.Username != nil {
		cols["username"] = *p.Username
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Phone != nil {
		cols["phone"] = *p.Phone
	}
	if p.Gender != nil {
		cols["gender"] = *p.Gender
	}
	if p.GenderSearch != nil {
		cols["gender_search"] = *p.GenderSearch
	}
	if p.Balance != nil {
		cols["balance"] = *p.Balance
	}
	if p.Birthday != nil {
		cols["birthday"] = *p.Birthday
	}
	return cols
}

// Apply merges the patch into u.
func (p *UserPatch) Apply(u *User) {
	if p == nil || u == nil {
		return
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.GenderSearch != nil {
		u.GenderSearch = *p.GenderSearch
	}
	if p.Balance != nil {
		u.Balance = *p.Balance
	}
	if p.Birthday != nil {
		u.Birthday = *p.Birthday
	}
}

// UserResponse is the wire form of a stored user
type UserResponse struct {
	ID           string      `json:"id"`
	Username     null.String `json:"username"`
	Email        null.String `json:"email"`
	Phone        null.String `json:"phone"`
	Gender       string      `json:"gender"`
	GenderSearch string      `json:"gender_search"`
	Balance      int64       `json:"balance"`
	Birthday     string      `json:"birthday"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewUserResponse builds the wire form of u.
func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		Gender:       u.Gender,
		GenderSearch: u.GenderSearch,
		Balance:      u.Balance,
		Birthday:     u.Birthday.UTC().Format(DateLayout),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Existence is the outcome of a uniqueness index check
type Existence int

const (
	NotFound Existence = iota
	Found
	Malformed
)

func (e Existence) String() string {
	switch e {
	case Found:
		return "found"
	case Malformed:
		return "malformed"
	default:
		return "not_found"
	}
}

// ExistsResult is a tri-state lookup result. OwnerID is set when Found.
type ExistsResult struct {
	State   Existence
	OwnerID string
}
