// Package enummap provides a small bidirectional table between a closed
// enumeration and one associated value type.
package enummap

import "fmt"

// Map is a total bidirectional mapping between enumerants of type E and
// values of type T. It is immutable after construction and safe for
// concurrent reads.
type Map[E comparable, T comparable] struct {
	enums    []E
	values   []T
	defEnum  E
	defValue T

	onUnknownEnum  func(E)
	onUnknownValue func(T)
}

// New builds a Map. enums and values are parallel slices covering every
// non-default enumerant; defEnum and defValue form the fallback pair.
// The callbacks are invoked when a lookup misses and may be nil.
func New[E comparable, T comparable](
	enums []E,
	values []T,
	defEnum E,
	defValue T,
	onUnknownEnum func(E),
	onUnknownValue func(T),
) (*Map[E, T], error) {
	if len(enums) != len(values) {
		return nil, fmt.Errorf("enum count %d does not match value count %d", len(enums), len(values))
	}

	seen := make(map[E]struct{}, len(enums))
	for _, e := range enums {
		if e == defEnum {
			return nil, fmt.Errorf("default enum %v listed among mapped enums", e)
		}
		if _, dup := seen[e]; dup {
			return nil, fmt.Errorf("duplicate enum %v", e)
		}
		seen[e] = struct{}{}
	}

	return &Map[E, T]{
		enums:          append([]E(nil), enums...),
		values:         append([]T(nil), values...),
		defEnum:        defEnum,
		defValue:       defValue,
		onUnknownEnum:  onUnknownEnum,
		onUnknownValue: onUnknownValue,
	}, nil
}

// MustNew is like New but panics on a malformed table.
func MustNew[E comparable, T comparable](
	enums []E,
	values []T,
	defEnum E,
	defValue T,
	onUnknownEnum func(E),
	onUnknownValue func(T),
) *Map[E, T] {
	m, err := New(enums, values, defEnum, defValue, onUnknownEnum, onUnknownValue)
	if err != nil {
		panic(fmt.Sprintf("enummap: %v", err))
	}
	return m
}

// Value returns the value mapped to e. The default enum maps to the
// default value silently; an unmapped enum is reported and also yields
// the default value.
func (m *Map[E, T]) Value(e E) T {
	if e == m.defEnum {
		return m.defValue
	}
	for i, candidate := range m.enums {
		if candidate == e {
			return m.values[i]
		}
	}
	if m.onUnknownEnum != nil {
		m.onUnknownEnum(e)
	}
	return m.defValue
}

// Enum returns the first enumerant mapped to v. The default value maps
// back to the default enum; anything else unmapped is reported.
func (m *Map[E, T]) Enum(v T) E {
	if e, ok := m.Lookup(v); ok {
		return e
	}
	if m.onUnknownValue != nil {
		m.onUnknownValue(v)
	}
	return m.defEnum
}

// Lookup is the non-reporting form of Enum.
func (m *Map[E, T]) Lookup(v T) (E, bool) {
	for i, candidate := range m.values {
		if candidate == v {
			return m.enums[i], true
		}
	}
	if v == m.defValue {
		return m.defEnum, true
	}
	var zero E
	return zero, false
}

// Len reports the number of mapped (non-default) enumerants.
func (m *Map[E, T]) Len() int {
	return len(m.enums)
}
