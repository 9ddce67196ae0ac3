package filemeta

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ParseValue converts free-text input into an Entry of the given kind.
//
// Parsing rules:
//   - integer:  base-10 whole number, surrounding whitespace ignored
//   - number:   finite real number
//   - boolean:  true/1/yes or false/0/no, case-insensitive
//   - date:     any calendar date or timestamp; only the UTC date is kept
//   - datetime: any calendar date or timestamp; the full UTC instant is kept
//   - string:   input unmodified (also used for an empty or unknown kind)
//
// Returns an error wrapping ErrInvalidValue when input does not parse.
func ParseValue(input string, kind MetadataType) (Entry, error) {
	trimmed := strings.TrimSpace(input)

	switch kind {
	case TypeInteger:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, input)
		}
		return IntegerEntry(n), nil

	case TypeNumber:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Entry{}, fmt.Errorf("%w: %q is not a finite number", ErrInvalidValue, input)
		}
		return NumberEntry(f), nil

	case TypeBoolean:
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return BooleanEntry(true), nil
		case "false", "0", "no":
			return BooleanEntry(false), nil
		}
		return Entry{}, fmt.Errorf("%w: %q is not a boolean (true/false, 1/0, yes/no)", ErrInvalidValue, input)

	case TypeDate, TypeDatetime:
		t, err := cast.ToTimeE(trimmed)
		if err != nil || trimmed == "" {
			return Entry{}, fmt.Errorf("%w: %q is not a date", ErrInvalidValue, input)
		}
		if kind == TypeDate {
			return DateEntry(t), nil
		}
		return DatetimeEntry(t), nil

	default:
		return StringEntry(input), nil
	}
}
