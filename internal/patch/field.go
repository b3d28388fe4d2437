// Package patch holds the tri-state field used by sparse update payloads.
package patch

import "encoding/json"

// Field distinguishes three states of a JSON member:
//   - absent: the key was not in the payload
//   - null:   the key was present with a JSON null
//   - value:  the key carried a value
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Value returns a Field carrying v.
func Value[T any](v T) Field[T] { return Field[T]{set: true, value: v} }

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.set = true
	if string(b) == "null" {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(b, &f.value)
}

// MarshalJSON writes null for absent and null fields. Use omitzero on the
// containing struct to drop absent members.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f Field[T]) IsZero() bool  { return !f.set }
func (f Field[T]) IsSet() bool   { return f.set }
func (f Field[T]) IsNull() bool  { return f.set && f.null }
func (f Field[T]) Present() bool { return f.set && !f.null }

// Apply overwrites *dst when the field carries a value.
func (f Field[T]) Apply(dst *T) {
	if f.Present() {
		*dst = f.value
	}
}

// ApplyPtr is Apply for optional destinations.
func (f Field[T]) ApplyPtr(dst **T) {
	if f.Present() {
		v := f.value
		*dst = &v
	}
}
