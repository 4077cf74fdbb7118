package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ref is a reference the backend sends either as a raw id string or as the
// already-populated object.
type Ref[T any] struct {
	ID    string
	Value *T
}

// RefID builds an unpopulated reference.
func RefID[T any](id string) Ref[T] {
	return Ref[T]{ID: id}
}

// RefTo builds a populated reference.
func RefTo[T any](id string, v T) Ref[T] {
	return Ref[T]{ID: id, Value: &v}
}

// Populated reports whether the object itself is available.
func (r Ref[T]) Populated() bool { return r.Value != nil }

// IsZero reports whether the reference carries neither id nor object.
func (r Ref[T]) IsZero() bool { return r.ID == "" && r.Value == nil }

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(r.ID)), nil
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref[T]{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		id, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("ref id: %w", err)
		}
		r.ID = id
		return nil
	case '{':
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("ref object: %w", err)
		}
		var idOnly struct {
			ID string `json:"_id"`
		}
		_ = json.Unmarshal(data, &idOnly)
		r.ID = idOnly.ID
		r.Value = &v
		return nil
	default:
		return fmt.Errorf("ref: unexpected JSON %s", data)
	}
}
