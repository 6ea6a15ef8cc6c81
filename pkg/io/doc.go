// Package io reads and writes feature collections.
//
// # Formats
//
// Two input formats are supported:
//
//   - GeoJSON FeatureCollection (.geojson, .json), read and written
//   - ESRI shapefile (.shp), read only
//
// Geometry decoding is delegated to github.com/ctessum/geom's encoding
// packages. Coordinates are used as-is; no reprojection happens.
//
// # GeoJSON
//
// Use [ImportGeoJSON] to read a file or [ReadGeoJSON] to read from any
// io.Reader:
//
//	fs, err := io.ImportGeoJSON("parcels.geojson")
//
// A feature's "id" may be a string or a number and is always stored as a
// string. Features without an id get their zero-based position in the
// collection. A null geometry yields a feature with a nil Geometry.
//
// [WriteGeoJSON] and [ExportGeoJSON] write a FeatureCollection back out.
// Bounds geometries are written as polygons.
//
// # Shapefiles
//
// [ImportShapefile] reads the geometry of every record plus the requested
// attribute columns. Attribute values are kept as strings. Feature ids are
// the record position.
//
// # Dispatch
//
// [Import] picks the reader from the file extension.
package io
