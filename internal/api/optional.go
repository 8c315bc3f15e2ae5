package api

import (
	"bytes"
	"encoding/json"
)

// OptionalList distinguishes an absent sequence from a present, possibly empty one.
// On input a missing field or JSON null is absent. On output an absent list is
// omitted (the field carries `omitzero`) while a present empty list renders as [].
type OptionalList[T any] struct {
	items   []T
	present bool
}

// Some returns a present list. A nil slice becomes a present empty list.
func Some[T any](items []T) OptionalList[T] {
	if items == nil {
		items = []T{}
	}
	return OptionalList[T]{items: items, present: true}
}

// None returns an absent list.
func None[T any]() OptionalList[T] {
	return OptionalList[T]{}
}

func (l OptionalList[T]) Present() bool {
	return l.present
}

// Items returns the elements, nil when absent.
func (l OptionalList[T]) Items() []T {
	return l.items
}

func (l OptionalList[T]) Len() int {
	return len(l.items)
}

// IsZero lets encoding/json omit absent lists.
func (l OptionalList[T]) IsZero() bool {
	return !l.present
}

func (l OptionalList[T]) MarshalJSON() ([]byte, error) {
	if !l.present {
		return []byte("null"), nil
	}
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l *OptionalList[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = None[T]()
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = Some(items)
	return nil
}
