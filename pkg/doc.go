// Package pkg provides the libraries behind gridcut.
//
// # Overview
//
// gridcut lays a regular grid over a collection of vector features and culls
// the features per cell. A cell keeps either the whole features whose
// bounding-box center lies inside it, or the parts of every geometry that
// overlap the cell rectangle. The pkg directory is organized into four areas:
//
//  1. Domain: [feature], [grid], [overlay]
//  2. Input and output: [io], [sink]
//  3. Orchestration: [pipeline], [server]
//  4. Support: [cache], [config], [errors], [observability], [buildinfo]
//
// # Architecture
//
// The data flow through a run:
//
//	GeoJSON / shapefile
//	         ↓
//	    [io] package (decode into a feature.Collection)
//	         ↓
//	    [grid] package (cell layout from extent + policy, per-cell culling)
//	         ↓
//	    [sink] package (GeoJSON files, SQLite, MongoDB, plot, memory)
//
// [pipeline] runs these stages with a [cache] in front of the culling step.
// [server] serves one run over HTTP.
//
// # Quick Start
//
// Cull a file into 250 unit cells and write each cell to disk:
//
//	policy := config.New()
//	policy.Set(grid.KeyCellSize, "250")
//
//	out, _ := sink.NewDirSink("cells", false)
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "parcels.geojson",
//	    Policy: policy,
//	}, out)
//
// Use the gridder directly on features already in memory:
//
//	g, _ := grid.New(extent, grid.PolicyFromConfig(policy))
//	for i := 0; i < g.CellCount(); i++ {
//	    res := g.Cull(i, fs)
//	    fmt.Println(i, res.In, res.Out)
//	}
//
// # Main Packages
//
// [feature] - Features, collections and axis-aligned extents.
//
// [grid] - Gridding policy, cell layout and the centroid and cropping
// culling techniques.
//
// [overlay] - Polygon intersection engines used by cropping. The planar
// engine is backed by ctessum/geom; builds tagged nooverlay have none and
// cropping falls back to centroid culling.
//
// [io] - GeoJSON and ESRI shapefile import, GeoJSON export.
//
// [sink] - Destinations for culled cells.
//
// [pipeline] - Load, grid, cull and sink with per-cell caching. Used by the
// CLI and the HTTP server.
//
// [cache] - File, Redis and compressed caches with scoped keys.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/grid/...               # Specific package
//	go test -tags nooverlay ./pkg/...    # Without an overlay engine
//
// [feature]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/feature
// [grid]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/grid
// [overlay]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/overlay
// [io]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/io
// [sink]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/gridcut/pkg/buildinfo
package pkg
