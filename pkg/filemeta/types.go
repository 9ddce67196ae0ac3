package filemeta

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// MetadataType is the kind of value an Entry holds.
type MetadataType string

const (
	TypeString   MetadataType = "string"
	TypeInteger  MetadataType = "integer"
	TypeNumber   MetadataType = "number"
	TypeBoolean  MetadataType = "boolean"
	TypeDate     MetadataType = "date"
	TypeDatetime MetadataType = "datetime"
)

// Types lists every supported MetadataType.
var Types = []MetadataType{TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDate, TypeDatetime}

const (
	// DateLayout is the stored form of a date value (no time component).
	DateLayout = "2006-01-02"

	// DatetimeLayout is the stored form of a datetime value, always UTC
	// with millisecond precision.
	DatetimeLayout = "2006-01-02T15:04:05.000Z"
)

// Valid reports whether t is a supported type.
func (t MetadataType) Valid() bool {
	return slices.Contains(Types, t)
}

// ParseType converts a type name to a MetadataType.
func ParseType(name string) (MetadataType, error) {
	t := MetadataType(name)
	if !t.Valid() {
		return "", fmt.Errorf("unknown metadata type %q (want one of %v)", name, Types)
	}
	return t, nil
}

// Entry is a single typed annotation.
//
// Value holds a Go value matching Type:
//
//	string, date, datetime -> string
//	integer                -> int64
//	number                 -> float64
//	boolean                -> bool
//
// The JSON form is {"type":"integer","value":42}.
type Entry struct {
	Type  MetadataType `json:"type"`
	Value any          `json:"value"`
}

// StringEntry returns a string entry.
func StringEntry(v string) Entry { return Entry{Type: TypeString, Value: v} }

// IntegerEntry returns an integer entry.
func IntegerEntry(v int64) Entry { return Entry{Type: TypeInteger, Value: v} }

// NumberEntry returns a number entry.
func NumberEntry(v float64) Entry { return Entry{Type: TypeNumber, Value: v} }

// BooleanEntry returns a boolean entry.
func BooleanEntry(v bool) Entry { return Entry{Type: TypeBoolean, Value: v} }

// DateEntry returns a date entry holding the UTC calendar date of t.
func DateEntry(t time.Time) Entry {
	return Entry{Type: TypeDate, Value: t.UTC().Format(DateLayout)}
}

// DatetimeEntry returns a datetime entry holding t in UTC.
func DatetimeEntry(t time.Time) Entry {
	return Entry{Type: TypeDatetime, Value: t.UTC().Format(DatetimeLayout)}
}

// String renders the value for display.
func (e Entry) String() string {
	return cast.ToString(e.Value)
}

// Time returns the instant of a date or datetime entry.
func (e Entry) Time() (time.Time, error) {
	s, ok := e.Value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s value is %T, want string", ErrInvalidValue, e.Type, e.Value)
	}
	switch e.Type {
	case TypeDate:
		return time.Parse(DateLayout, s)
	case TypeDatetime:
		return time.Parse(DatetimeLayout, s)
	default:
		return time.Time{}, fmt.Errorf("%w: %s entry has no time", ErrInvalidValue, e.Type)
	}
}

// Validate checks that Value has the Go type and format required by Type.
func (e Entry) Validate() error {
	switch e.Type {
	case TypeString:
		v, ok := e.Value.(string)
		if !ok {
			return e.typeError("string")
		}
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: string value is not valid UTF-8", ErrInvalidValue)
		}
	case TypeInteger:
		if _, ok := e.Value.(int64); !ok {
			return e.typeError("int64")
		}
	case TypeNumber:
		f, ok := e.Value.(float64)
		if !ok {
			return e.typeError("float64")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: number must be finite", ErrInvalidValue)
		}
	case TypeBoolean:
		if _, ok := e.Value.(bool); !ok {
			return e.typeError("bool")
		}
	case TypeDate, TypeDatetime:
		if _, err := e.Time(); err != nil {
			return fmt.Errorf("%w: malformed %s %v", ErrInvalidValue, e.Type, e.Value)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidValue, e.Type)
	}
	return nil
}

func (e Entry) typeError(want string) error {
	return fmt.Errorf("%w: %s value is %T, want %s", ErrInvalidValue, e.Type, e.Value, want)
}

// UnmarshalJSON decodes the value into the Go type matching the entry's type,
// so integers come back as int64 rather than float64.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  MetadataType    `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var value any
	switch raw.Type {
	case TypeInteger:
		if len(raw.Value) > 0 && raw.Value[0] == '"' {
			return fmt.Errorf("%w: integer value must be a JSON number", ErrInvalidValue)
		}
		var n json.Number
		if err := json.Unmarshal(raw.Value, &n); err != nil {
			return fmt.Errorf("%w: integer: %v", ErrInvalidValue, err)
		}
		i, err := n.Int64()
		if err != nil {
			// Older records may carry integral floats such as 4.0.
			f, ferr := n.Float64()
			if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return fmt.Errorf("%w: integer %s", ErrInvalidValue, n)
			}
			i = int64(f)
		}
		value = i
	case TypeNumber:
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("%w: number: %v", ErrInvalidValue, err)
		}
		value = f
	case TypeBoolean:
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("%w: boolean: %v", ErrInvalidValue, err)
		}
		value = b
	case TypeString, TypeDate, TypeDatetime:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, raw.Type, err)
		}
		value = s
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidValue, raw.Type)
	}

	e.Type = raw.Type
	e.Value = value
	return nil
}

// FileMetadata is the full set of annotations for one item, keyed by
// annotation name.
type FileMetadata map[string]Entry

// Clone returns a copy of m. Entry values are immutable scalars, so a
// shallow copy is independent of the original. Clone of nil is nil.
func (m FileMetadata) Clone() FileMetadata {
	if m == nil {
		return nil
	}
	out := make(FileMetadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the annotation names in sorted order.
func (m FileMetadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Validate checks every key and entry.
func (m FileMetadata) Validate() error {
	for _, key := range m.Keys() {
		if err := ValidateKey(key); err != nil {
			return err
		}
		if err := m[key].Validate(); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}
