package filemeta

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxKeyLength is the maximum key length in characters (Unicode code points).
	MaxKeyLength = 255

	// DefaultKeyPrefix namespaces metadata records in the kv store.
	DefaultKeyPrefix = "fileMetadata:"
)

// keyRules is the validator tag applied to metadata keys.
// validator's max counts runes for strings.
var keyRules = fmt.Sprintf("required,utf8,max=%d,nocontrol", MaxKeyLength)

var keyValidator = newKeyValidator()

func newKeyValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
	_ = v.RegisterValidation("nocontrol", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), isControl)
	})
	return v
}

// isControl matches U+0000..U+001F and U+007F.
func isControl(r rune) bool {
	return r <= 0x1F || r == 0x7F
}

// ValidateKey checks that key is non-empty valid UTF-8, at most MaxKeyLength
// characters long, and free of control characters.
//
// Returns an error wrapping ErrInvalidKey describing the first rule broken.
func ValidateKey(key string) error {
	err := keyValidator.Var(key, keyRules)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		switch validationErrs[0].Tag() {
		case "required":
			return fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
		case "utf8":
			return fmt.Errorf("%w: key %q is not valid UTF-8", ErrInvalidKey, key)
		case "max":
			return fmt.Errorf("%w: key exceeds %d characters", ErrInvalidKey, MaxKeyLength)
		case "nocontrol":
			return fmt.Errorf("%w: key %q contains control characters", ErrInvalidKey, key)
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidKey, err)
}

// IsValidKey reports whether ValidateKey accepts key.
func IsValidKey(key string) bool {
	return ValidateKey(key) == nil
}
