// Package feature defines the vector feature model gridcut operates on.
//
// A [Feature] pairs an identifier and free-form properties with a planar
// geometry from github.com/ctessum/geom. A [Collection] is an ordered list of
// features. An [Extent] is the axis-aligned rectangle a collection (or a grid
// cell) covers.
//
// Geometry values are treated as immutable: operations that change a
// feature's geometry return a clone carrying the new geometry rather than
// editing shared state.
package feature
