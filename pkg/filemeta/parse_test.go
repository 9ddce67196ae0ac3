package filemeta

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    MetadataType
		want    Entry
		wantErr bool
	}{
		// integer
		{"integer", "42", TypeInteger, IntegerEntry(42), false},
		{"negative integer", "-7", TypeInteger, IntegerEntry(-7), false},
		{"integer with spaces", "  12 ", TypeInteger, IntegerEntry(12), false},
		{"integer rejects fraction", "4.5", TypeInteger, Entry{}, true},
		{"integer rejects text", "forty", TypeInteger, Entry{}, true},
		{"integer rejects empty", "", TypeInteger, Entry{}, true},
		{"integer rejects overflow", "99999999999999999999", TypeInteger, Entry{}, true},

		// number
		{"number", "3.14", TypeNumber, NumberEntry(3.14), false},
		{"number exponent", "1e3", TypeNumber, NumberEntry(1000), false},
		{"number whole", "10", TypeNumber, NumberEntry(10), false},
		{"number rejects NaN", "NaN", TypeNumber, Entry{}, true},
		{"number rejects Inf", "Inf", TypeNumber, Entry{}, true},
		{"number rejects text", "pi", TypeNumber, Entry{}, true},

		// boolean
		{"boolean yes", "yes", TypeBoolean, BooleanEntry(true), false},
		{"boolean TRUE", "TRUE", TypeBoolean, BooleanEntry(true), false},
		{"boolean 1", "1", TypeBoolean, BooleanEntry(true), false},
		{"boolean No", "No", TypeBoolean, BooleanEntry(false), false},
		{"boolean false", "false", TypeBoolean, BooleanEntry(false), false},
		{"boolean 0", "0", TypeBoolean, BooleanEntry(false), false},
		{"boolean rejects maybe", "maybe", TypeBoolean, Entry{}, true},
		{"boolean rejects y", "y", TypeBoolean, Entry{}, true},

		// date
		{"date", "2024-03-05", TypeDate, Entry{Type: TypeDate, Value: "2024-03-05"}, false},
		{"date drops time", "2024-03-05T18:30:00Z", TypeDate, Entry{Type: TypeDate, Value: "2024-03-05"}, false},
		{"date normalises to UTC", "2024-03-05T23:30:00-05:00", TypeDate, Entry{Type: TypeDate, Value: "2024-03-06"}, false},
		{"date rejects garbage", "not-a-date", TypeDate, Entry{}, true},
		{"date rejects empty", "", TypeDate, Entry{}, true},

		// datetime
		{"datetime", "2024-03-05T18:30:00Z", TypeDatetime, Entry{Type: TypeDatetime, Value: "2024-03-05T18:30:00.000Z"}, false},
		{"datetime with offset", "2024-03-05T18:30:00+02:00", TypeDatetime, Entry{Type: TypeDatetime, Value: "2024-03-05T16:30:00.000Z"}, false},
		{"datetime from date", "2024-03-05", TypeDatetime, Entry{Type: TypeDatetime, Value: "2024-03-05T00:00:00.000Z"}, false},
		{"datetime rejects garbage", "not-a-date", TypeDatetime, Entry{}, true},

		// string
		{"string keeps input", "  hello  ", TypeString, StringEntry("  hello  "), false},
		{"string empty", "", TypeString, StringEntry(""), false},
		{"unknown kind is string", "x", MetadataType("colour"), StringEntry("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.input, tt.kind)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"simple", "author", true},
		{"spaces and punctuation", "Project: Q3 / draft", true},
		{"unicode", "größe", true},
		{"max length", strings.Repeat("k", MaxKeyLength), true},
		{"max length in runes", strings.Repeat("é", MaxKeyLength), true},
		{"empty", "", false},
		{"too long", strings.Repeat("k", MaxKeyLength+1), false},
		{"newline", "a\nb", false},
		{"nul", "a\x00b", false},
		{"tab", "\tkey", false},
		{"delete", "key\x7f", false},
		{"invalid utf-8", "a\xff", false},
		{"truncated utf-8", "gr\xc3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
				assert.True(t, IsValidKey(tt.key))
				return
			}
			assert.ErrorIs(t, err, ErrInvalidKey)
			assert.False(t, IsValidKey(tt.key))
		})
	}
}

func TestEntry_Validate(t *testing.T) {
	assert.NoError(t, StringEntry("x").Validate())
	assert.NoError(t, DateEntry(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)).Validate())

	invalid := []Entry{
		{Type: TypeInteger, Value: 1.5},
		{Type: TypeInteger, Value: "1"},
		{Type: TypeBoolean, Value: "true"},
		{Type: TypeDate, Value: "2024-03-05T00:00:00Z"},
		{Type: TypeDatetime, Value: "2024-03-05"},
		{Type: "colour", Value: "red"},
		{Type: TypeString, Value: "a\xff"},
	}
	for _, e := range invalid {
		assert.ErrorIs(t, e.Validate(), ErrInvalidValue, "%+v", e)
	}
}

func TestEntry_UnmarshalJSON(t *testing.T) {
	var meta FileMetadata
	err := jsonUnmarshal(`{
		"pages":   {"type":"integer","value":42},
		"legacy":  {"type":"integer","value":4.0},
		"ratio":   {"type":"number","value":0.5},
		"done":    {"type":"boolean","value":true},
		"due":     {"type":"date","value":"2024-03-05"},
		"title":   {"type":"string","value":"Q3"}
	}`, &meta)
	require.NoError(t, err)

	assert.Equal(t, IntegerEntry(42), meta["pages"])
	assert.Equal(t, IntegerEntry(4), meta["legacy"])
	assert.Equal(t, NumberEntry(0.5), meta["ratio"])
	assert.Equal(t, BooleanEntry(true), meta["done"])
	assert.Equal(t, Entry{Type: TypeDate, Value: "2024-03-05"}, meta["due"])
	assert.Equal(t, StringEntry("Q3"), meta["title"])

	assert.ErrorIs(t, jsonUnmarshal(`{"x":{"type":"integer","value":"42"}}`, &meta), ErrInvalidValue)
	assert.ErrorIs(t, jsonUnmarshal(`{"x":{"type":"integer","value":4.5}}`, &meta), ErrInvalidValue)
	assert.ErrorIs(t, jsonUnmarshal(`{"x":{"type":"colour","value":"red"}}`, &meta), ErrInvalidValue)
}

func TestEntry_String(t *testing.T) {
	assert.Equal(t, "42", IntegerEntry(42).String())
	assert.Equal(t, "3.14", NumberEntry(3.14).String())
	assert.Equal(t, "true", BooleanEntry(true).String())
	assert.Equal(t, "2024-03-05", Entry{Type: TypeDate, Value: "2024-03-05"}.String())
}

func TestParseType(t *testing.T) {
	for _, kind := range Types {
		got, err := ParseType(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := ParseType("colour")
	assert.Error(t, err)
}
