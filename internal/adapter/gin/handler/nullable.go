package handler

import (
	"bytes"
	"encoding/json"
)

// NullableString is a JSON string field that remembers whether its key was present.
// An explicit null sets Set and leaves Value nil.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON only runs when the key is present in the payload.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// MarshalJSON writes the value or null.
func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}
