package services

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an absent JSON key from a key set to a value.
// A key present with null is recorded as Null and leaves Set false.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func SetTo[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get reports the value only when the key carried a non-null value.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// GetOrClear also reports an explicit null, as the zero value. Only nullable
// fields (rules, description) should read through it.
func (o Optional[T]) GetOrClear() (T, bool) {
	return o.Value, o.Set || o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	var v T
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = v
		o.Set = false
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = v
	o.Set = true
	o.Null = false
	return nil
}
