package config

import "fmt"

// Optional holds a value that may or may not have been explicitly set.
// An unset Optional still reports a default value from Value.
type Optional[T any] struct {
	value T
	def   T
	set   bool
}

// Some returns an Optional that is set to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Default returns an unset Optional whose Value is def.
func Default[T any](def T) Optional[T] {
	return Optional[T]{value: def, def: def}
}

// IsSet reports whether the value was explicitly set.
func (o Optional[T]) IsSet() bool { return o.set }

// Value returns the set value, or the default when unset.
func (o Optional[T]) Value() T { return o.value }

// DefaultValue returns the default the Optional was created with.
func (o Optional[T]) DefaultValue() T { return o.def }

// Get returns the value and whether it was explicitly set.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// Set assigns v and marks the Optional as set.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Unset clears the value back to the default.
func (o *Optional[T]) Unset() {
	o.value = o.def
	o.set = false
}

// String formats the value, marking unset values with "(default)".
func (o Optional[T]) String() string {
	if !o.set {
		return fmt.Sprintf("%v (default)", o.value)
	}
	return fmt.Sprintf("%v", o.value)
}
