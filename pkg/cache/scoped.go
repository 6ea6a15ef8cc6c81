package cache

// ScopedKeyer wraps a Keyer with a prefix, so several projects or datasets
// can share one Redis instance without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "city-parcels:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CellKey generates a prefixed cell key.
func (k *ScopedKeyer) CellKey(inputHash string, opts CellKeyOpts) string {
	return k.prefix + k.inner.CellKey(inputHash, opts)
}

// GridKey generates a prefixed grid key.
func (k *ScopedKeyer) GridKey(inputHash string, opts GridKeyOpts) string {
	return k.prefix + k.inner.GridKey(inputHash, opts)
}
