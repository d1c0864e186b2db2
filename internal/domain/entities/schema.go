package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldKind is the storage type of a column
type FieldKind string

const (
	KindIdentifier FieldKind = "identifier"
	KindString     FieldKind = "string"
	KindInt        FieldKind = "int"
	KindDate       FieldKind = "date"
)

// DateLayout is the wire format of date columns
const DateLayout = "2006-01-02"

// Wire names of the user fields
const (
	FieldID           = "id"
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldGender       = "gender"
	FieldGenderSearch = "gender_search"
	FieldBalance      = "balance"
	FieldBirthday     = "birthday"
)

// Column limits shared by the gorm model and the validation pipeline
const (
	MaxIDLength           = 36
	MaxUsernameLength     = 50
	MaxEmailLength        = 40
	MaxPhoneLength        = 20
	MaxGenderLength       = 10
	MaxGenderSearchLength = 10
)

// FieldSpec describes one column of the users table
type FieldSpec struct {
	Name      string
	Column    string
	Kind      FieldKind
	Required  bool
	Unique    bool
	MaxLength int
}

// UserSchema lists the user columns in declaration order.
var UserSchema = []FieldSpec{
	{Name: FieldID, Column: "id", Kind: KindIdentifier, Required: true, Unique: true, MaxLength: MaxIDLength},
	{Name: FieldUsername, Column: "username", Kind: KindString, Unique: true, MaxLength: MaxUsernameLength},
	{Name: FieldEmail, Column: "email", Kind: KindString, Unique: true, MaxLength: MaxEmailLength},
	{Name: FieldPhone, Column: "phone", Kind: KindString, Unique: true, MaxLength: MaxPhoneLength},
	{Name: FieldGender, Column: "gender", Kind: KindString, Required: true, MaxLength: MaxGenderLength},
	{Name: FieldGenderSearch, Column: "gender_search", Kind: KindString, Required: true, MaxLength: MaxGenderSearchLength},
	{Name: FieldBalance, Column: "balance", Kind: KindInt},
	{Name: FieldBirthday, Column: "birthday", Kind: KindDate, Required: true},
}

// LookupField returns the column description of the named field.
func LookupField(name string) (FieldSpec, bool) {
	for _, spec := range UserSchema {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

var (
	ErrShapeTooLong   = errors.New("value too long")
	ErrShapeWrongType = errors.New("value has wrong type")
	ErrUnknownField   = errors.New("unknown field")
)

// ShapeError reports a value that does not fit its column
type ShapeError struct {
	Field string
	Limit int
	Err   error
}

func (e *ShapeError) Error() string {
	if errors.Is(e.Err, ErrShapeTooLong) {
		return fmt.Sprintf("%s is more than %d characters", e.Field, e.Limit)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// ValidateShape checks that value fits the storage type and length of field.
// It has no side effects.
func ValidateShape(field string, value interface{}) error {
	spec, ok := LookupField(field)
	if !ok {
		return &ShapeError{Field: field, Err: ErrUnknownField}
	}
	return spec.ValidateShape(value)
}

// ValidateShape checks value against this column.
func (s FieldSpec) ValidateShape(value interface{}) error {
	switch s.Kind {
	case KindIdentifier:
		if _, ok := NormalizeIdentifier(value); !ok {
			return &ShapeError{Field: s.Name, Err: ErrShapeWrongType}
		}
		return nil
	case KindInt:
		if _, ok := AsInt64(value); !ok {
			return &ShapeError{Field: s.Name, Err: ErrShapeWrongType}
		}
		return nil
	case KindDate:
		if _, ok := AsDate(value); !ok {
			return &ShapeError{Field: s.Name, Err: ErrShapeWrongType}
		}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return &ShapeError{Field: s.Name, Err: ErrShapeWrongType}
	}
	if s.MaxLength > 0 && utf8.RuneCountInString(str) > s.MaxLength {
		return &ShapeError{Field: s.Name, Limit: s.MaxLength, Err: ErrShapeTooLong}
	}
	return nil
}

// AsInt64 converts a decoded JSON value to an integer. Integral numbers and
// numeric strings are accepted.
func AsInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

// AsDate parses a YYYY-MM-DD string into a UTC midnight time.
func AsDate(value interface{}) (time.Time, bool) {
	s, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
