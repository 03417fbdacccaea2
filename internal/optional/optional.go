// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package optional

// Optional is a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	present bool
	value   T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{present: true, value: v}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) IsPresent() bool {
	return o.present
}

func (o Optional[T]) Value() T {
	return o.value
}

// OrElse returns the contained value, or v when absent.
func (o Optional[T]) OrElse(v T) T {
	if o.present {
		return o.value
	}
	return v
}
