// Package grid partitions a rectangular extent into a regular grid of cells
// and culls feature collections down to the features belonging to one cell.
//
// # Grid Layout
//
// A [Gridder] is built from an extent and a [Policy]. With a positive cell
// size the grid has ceil(width/size) columns and ceil(height/size) rows.
// Otherwise it has a single cell covering the whole extent. Cells are indexed
// row-major from the minimum corner:
//
//	x = i % cellsX
//	y = i / cellsX
//
// Cells in the last column and row are clamped to the extent, so they may be
// narrower than the cell size. No spatial index is built.
//
// # Culling
//
// Two techniques decide which features belong to a cell:
//
//   - [CullByCentroid] keeps a whole feature when the center of its bounding
//     box lies inside the cell. Edges are inclusive, so a center on an edge
//     shared by two cells belongs to both.
//   - [CullByCropping] clips each feature's geometry to the cell rectangle
//     with an [overlay.Engine]. Features whose overlay fails or whose clipped
//     geometry is empty are dropped; the rest of the batch carries on.
//
// Cropping needs an overlay engine. When none is available the Gridder falls
// back to centroid culling and logs a single warning at construction.
//
// Culling never modifies its input. Kept features are clones, so the same
// collection can be culled for every cell in any order.
package grid
