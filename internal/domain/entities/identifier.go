package entities

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeIdentifier turns a raw identifier into its lookup key.
// Values that parse as a UUID are rewritten to the canonical lower-case
// dashed form. Other strings are kept verbatim when they are at most
// MaxIDLength characters of [A-Za-z0-9._~-]. Anything else is malformed.
func NormalizeIdentifier(raw interface{}) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if id, err := uuid.Parse(s); err == nil {
		return id.String(), true
	}
	if len(s) > MaxIDLength {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentifierByte(s[i]) {
			return "", false
		}
	}
	return s, true
}

func isIdentifierByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
