// Package overlay provides the geometry overlay capability used to clip
// features to grid cells.
//
// An [Engine] works on its own geometry handles ([Shape]). Callers import
// native geometries, run [Engine.Intersection], export the result back with a
// validity check, and release every shape they created. The lifecycle mirrors
// engines backed by native memory, where handles must be freed explicitly:
//
//	cell, _ := e.Import(bounds.Polygon())
//	defer e.Release(cell)
//	in, err := e.Import(f.Geometry)
//	...
//	out, err := e.Intersection(in, cell)
//	g, ok := e.Export(out)
//
// [NewPlanar] returns the engine backed by github.com/ctessum/geom.
//
// # Capability Detection
//
// The overlay capability is optional. [Default] returns the planar engine in
// normal builds and nil when the module is built with -tags nooverlay.
// Components that need clipping treat a nil engine as "capability absent" and
// degrade accordingly.
package overlay
