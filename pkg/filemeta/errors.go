package filemeta

import "errors"

var (
	// ErrInvalidKey is returned when a metadata key is empty, not valid UTF-8,
	// longer than MaxKeyLength characters, or contains a control character.
	ErrInvalidKey = errors.New("invalid metadata key")

	// ErrInvalidValue is returned when free-text input cannot be parsed as the
	// requested kind, or when an Entry's value does not match its type.
	ErrInvalidValue = errors.New("invalid metadata value")

	// ErrDuplicateKey is returned by AddMetadataField when the key already
	// exists on the item.
	ErrDuplicateKey = errors.New("metadata key already exists")

	// ErrInvalidID is returned when an item identifier is empty.
	ErrInvalidID = errors.New("invalid item identifier")

	errCorruptRecord = errors.New("corrupt metadata record")
)
