package entities

// Payload is an untyped request body as decoded from JSON.
type Payload map[string]interface{}

// FieldState is the presence state of a single payload key
type FieldState int

const (
	// FieldAbsent means the key is not in the payload
	FieldAbsent FieldState = iota
	// FieldNull means the key is present with a JSON null
	FieldNull
	// FieldEmpty means the key is present with an empty string
	FieldEmpty
	// FieldValue means the key carries a usable value
	FieldValue
)

func (s FieldState) String() string {
	switch s {
	case FieldAbsent:
		return "absent"
	case FieldNull:
		return "null"
	case FieldEmpty:
		return "empty"
	default:
		return "value"
	}
}

// Field is a payload key resolved once.
type Field struct {
	Key   string
	State FieldState
	Raw   interface{}
}

// Blank reports whether the field carries no value at all.
func (f Field) Blank() bool {
	return f.State != FieldValue
}

// Resolve reads key from the payload and classifies it.
func (p Payload) Resolve(key string) Field {
	raw, ok := p[key]
	if !ok {
		return Field{Key: key, State: FieldAbsent}
	}
	if raw == nil {
		return Field{Key: key, State: FieldNull}
	}
	if s, isString := raw.(string); isString && s == "" {
		return Field{Key: key, State: FieldEmpty, Raw: raw}
	}
	return Field{Key: key, State: FieldValue, Raw: raw}
}

// Has reports whether key is present, whatever its value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}
