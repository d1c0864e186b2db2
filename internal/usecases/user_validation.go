package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
	"user-directory.backend/internal/domain/entities"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/domain/repositories"
)

// Wire keys of the update payload
const (
	UpdateKeyID           = "new_id"
	UpdateKeyUsername     = "new_username"
	UpdateKeyEmail        = "new_email"
	UpdateKeyPhone        = "new_phone"
	UpdateKeyGender       = "new_gender"
	UpdateKeyGenderSearch = "new_gender_search"
	UpdateKeyBalance      = "new_balance"
	UpdateKeyBirthday     = "new_birthday"
)

var contactFields = []string{entities.FieldUsername, entities.FieldEmail, entities.FieldPhone}

// UserValidator turns raw payloads into typed records or a Rejection.
// Rules run in a fixed order and the first failure is reported.
type UserValidator struct {
	userRepo repositories.UserRepository
}

// NewUserValidator creates a new validator
func NewUserValidator(userRepo repositories.UserRepository) *UserValidator {
	return &UserValidator{userRepo: userRepo}
}

// ValidateCreate checks a create payload and returns the record to insert.
func (v *UserValidator) ValidateCreate(ctx context.Context, payload entities.Payload) (*entities.User, error) {
	user := &entities.User{}

	idField := payload.Resolve(entities.FieldID)
	if idField.Blank() {
		return nil, domainerrors.Reject(entities.FieldID, "id is required")
	}
	res, err := v.userRepo.ExistsBy(ctx, entities.FieldID, idField.Raw)
	if err != nil {
		return nil, err
	}
	switch res.State {
	case entities.Found:
		return nil, domainerrors.Reject(entities.FieldID, "identifier already used")
	case entities.Malformed:
		return nil, domainerrors.Reject(entities.FieldID, "invalid identifier")
	}
	user.ID, _ = entities.NormalizeIdentifier(idField.Raw)

	contacts := make(map[string]null.String, len(contactFields))
	for _, name := range contactFields {
		value, err := v.resolveContact(ctx, payload.Resolve(name), name, "")
		if err != nil {
			return nil, err
		}
		if value != nil {
			contacts[name] = *value
		}
	}
	user.Username = contacts[entities.FieldUsername]
	user.Email = contacts[entities.FieldEmail]
	user.Phone = contacts[entities.FieldPhone]

	if user.Gender, err = requiredString(payload.Resolve(entities.FieldGender), entities.FieldGender); err != nil {
		return nil, err
	}
	if user.GenderSearch, err = requiredString(payload.Resolve(entities.FieldGenderSearch), entities.FieldGenderSearch); err != nil {
		return nil, err
	}
	birthday := payload.Resolve(entities.FieldBirthday)
	if birthday.Blank() {
		return nil, domainerrors.Reject(entities.FieldBirthday, "birthday is required")
	}
	if user.Birthday, err = parseDate(birthday, entities.FieldBirthday); err != nil {
		return nil, err
	}

	balance := payload.Resolve(entities.FieldBalance)
	if !balance.Blank() {
		n, ok := entities.AsInt64(balance.Raw)
		if !ok {
			return nil, domainerrors.Reject(entities.FieldBalance, "balance must be an integer")
		}
		user.Balance = n
	}

	checks := []struct {
		key   string
		field string
		value string
	}{
		{entities.FieldUsername, entities.FieldUsername, user.Username.String},
		{entities.FieldEmail, entities.FieldEmail, user.Email.String},
		{entities.FieldPhone, entities.FieldPhone, user.Phone.String},
		{entities.FieldGender, entities.FieldGender, user.Gender},
		{entities.FieldGenderSearch, entities.FieldGenderSearch, user.GenderSearch},
	}
	for _, c := range checks {
		if err := checkLength(c.key, c.field, c.value); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// ValidateUpdate checks an update payload against the stored user rawID.
// It returns the normalized identifier and the patch to apply.
func (v *UserValidator) ValidateUpdate(ctx context.Context, rawID string, payload entities.Payload) (string, *entities.UserPatch, error) {
	res, err := v.userRepo.ExistsBy(ctx, entities.FieldID, rawID)
	if err != nil {
		return "", nil, err
	}
	switch res.State {
	case entities.Malformed:
		return "", nil, domainerrors.Reject(entities.FieldID, "invalid identifier")
	case entities.NotFound:
		return "", nil, domainerrors.ErrNotFound
	}
	id := res.OwnerID

	if payload.Has(UpdateKeyID) {
		return "", nil, domainerrors.Reject(UpdateKeyID, "identifier cannot be changed")
	}

	patch := &entities.UserPatch{}
	contactKeys := []struct {
		key   string
		field string
		dst   **null.String
	}{
		{UpdateKeyUsername, entities.FieldUsername, &patch.Username},
		{UpdateKeyEmail, entities.FieldEmail, &patch.Email},
		{UpdateKeyPhone, entities.FieldPhone, &patch.Phone},
	}
	for _, c := range contactKeys {
		field := payload.Resolve(c.key)
		switch field.State {
		case entities.FieldAbsent, entities.FieldEmpty:
			continue
		case entities.FieldNull:
			cleared := null.String{}
			*c.dst = &cleared
			continue
		}
		value, err := v.resolveContact(ctx, field, c.field, id)
		if err != nil {
			return "", nil, err
		}
		*c.dst = value
	}

	for _, c := range []struct {
		key string
		dst **string
	}{
		{UpdateKeyGender, &patch.Gender},
		{UpdateKeyGenderSearch, &patch.GenderSearch},
	} {
		field := payload.Resolve(c.key)
		if field.State == entities.FieldAbsent {
			continue
		}
		s, err := nonEmptyString(field, c.key)
		if err != nil {
			return "", nil, err
		}
		*c.dst = &s
	}

	if field := payload.Resolve(UpdateKeyBirthday); field.State != entities.FieldAbsent {
		if field.Blank() {
			return "", nil, domainerrors.Reject(UpdateKeyBirthday, UpdateKeyBirthday+" cannot be empty")
		}
		t, err := parseDate(field, UpdateKeyBirthday)
		if err != nil {
			return "", nil, err
		}
		patch.Birthday = &t
	}

	if field := payload.Resolve(UpdateKeyBalance); field.State != entities.FieldAbsent {
		if field.Blank() {
			return "", nil, domainerrors.Reject(UpdateKeyBalance, UpdateKeyBalance+" cannot be empty")
		}
		n, ok := entities.AsInt64(field.Raw)
		if !ok {
			return "", nil, domainerrors.Reject(UpdateKeyBalance, UpdateKeyBalance+" must be an integer")
		}
		patch.Balance = &n
	}

	for _, c := range contactKeys {
		if *c.dst == nil {
			continue
		}
		if err := checkLength(c.key, c.field, (*c.dst).String); err != nil {
			return "", nil, err
		}
	}
	if patch.Gender != nil {
		if err := checkLength(UpdateKeyGender, entities.FieldGender, *patch.Gender); err != nil {
			return "", nil, err
		}
	}
	if patch.GenderSearch != nil {
		if err := checkLength(UpdateKeyGenderSearch, entities.FieldGenderSearch, *patch.GenderSearch); err != nil {
			return "", nil, err
		}
	}
	return id, patch, nil
}

// resolveContact type checks a contact field and runs its uniqueness check.
// A nil result means the field is not supplied. A match is tolerated when it
// belongs to owner.
func (v *UserValidator) resolveContact(ctx context.Context, field entities.Field, column, owner string) (*null.String, error) {
	if field.Blank() {
		return nil, nil
	}
	s, ok := field.Raw.(string)
	if !ok {
		return nil, domainerrors.Reject(field.Key, field.Key+" must be a string")
	}
	res, err := v.userRepo.ExistsBy(ctx, column, s)
	if err != nil {
		return nil, err
	}
	switch res.State {
	case entities.Found:
		if owner == "" || res.OwnerID != owner {
			return nil, domainerrors.Reject(field.Key, field.Key+" already used")
		}
	case entities.Malformed:
		return nil, domainerrors.Reject(field.Key, field.Key+" must be a string")
	}
	value := null.StringFrom(s)
	return &value, nil
}

func requiredString(field entities.Field, name string) (string, error) {
	if field.Blank() {
		return "", domainerrors.Reject(name, name+" is required")
	}
	s, ok := field.Raw.(string)
	if !ok {
		return "", domainerrors.Reject(name, name+" must be a string")
	}
	return s, nil
}

func nonEmptyString(field entities.Field, key string) (string, error) {
	if field.Blank() {
		return "", domainerrors.Reject(key, key+" cannot be empty")
	}
	s, ok := field.Raw.(string)
	if !ok {
		return "", domainerrors.Reject(key, key+" must be a string")
	}
	return s, nil
}

func parseDate(field entities.Field, key string) (time.Time, error) {
	t, ok := entities.AsDate(field.Raw)
	if !ok {
		return time.Time{}, domainerrors.Reject(key, key+" must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// checkLength reports value under key when it exceeds the column limit of field.
func checkLength(key, field, value string) error {
	spec, ok := entities.LookupField(field)
	if !ok {
		return nil
	}
	err := spec.ValidateShape(value)
	var shapeErr *entities.ShapeError
	if errors.As(err, &shapeErr) && errors.Is(err, entities.ErrShapeTooLong) {
		return domainerrors.Reject(key, fmt.Sprintf("%s is more than %d characters", key, shapeErr.Limit))
	}
	return nil
}
