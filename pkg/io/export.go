package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"

	"github.com/matzehuels/gridcut/pkg/feature"
)

// WriteGeoJSON encodes c as a GeoJSON FeatureCollection. Features with a nil
// geometry are written with "geometry": null. The collection's bounding box
// is included when any feature has a geometry.
func WriteGeoJSON(w io.Writer, c feature.Collection) error {
	fc, err := encodeCollection(c)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalGeoJSON returns c as compact GeoJSON.
func MarshalGeoJSON(c feature.Collection) ([]byte, error) {
	fc, err := encodeCollection(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fc)
}

// ExportGeoJSON writes c to a GeoJSON file at path, creating parent
// directories as needed.
func ExportGeoJSON(path string, c feature.Collection) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGeoJSON(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeCollection(c feature.Collection) (featureCollection, error) {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]geoFeature, 0, len(c)),
	}
	if ext, ok := c.Extent(); ok {
		fc.BBox = []float64{ext.MinX, ext.MinY, ext.MaxX, ext.MaxY}
	}
	for _, f := range c {
		gf, err := encodeFeature(f)
		if err != nil {
			return featureCollection{}, fmt.Errorf("feature %s: %w", f.ID, err)
		}
		fc.Features = append(fc.Features, gf)
	}
	return fc, nil
}

func encodeFeature(f *feature.Feature) (geoFeature, error) {
	id, err := json.Marshal(f.ID)
	if err != nil {
		return geoFeature{}, err
	}
	gf := geoFeature{
		Type:       "Feature",
		ID:         id,
		Properties: f.Properties,
		Geometry:   json.RawMessage("null"),
	}
	if gf.Properties == nil {
		gf.Properties = map[string]any{}
	}
	if f.Geometry == nil {
		return gf, nil
	}

	g := f.Geometry
	if b, ok := g.(*geom.Bounds); ok {
		g = feature.ExtentOf(b).Polygon()
	}
	raw, err := geojson.Encode(g)
	if err != nil {
		return geoFeature{}, fmt.Errorf("geometry: %w", err)
	}
	gf.Geometry = json.RawMessage(raw)
	return gf, nil
}
