package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ctessum/geom/encoding/geojson"

	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
)

type featureCollection struct {
	Type     string       `json:"type"`
	BBox     []float64    `json:"bbox,omitempty"`
	Features []geoFeature `json:"features"`
}

type geoFeature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// ReadGeoJSON decodes a GeoJSON FeatureCollection from r. A single Feature
// object is accepted as a collection of one.
//
// ReadGeoJSON returns an INVALID_FORMAT error when the document is not
// GeoJSON or a geometry cannot be decoded. Errors name the offending feature
// by position. ReadGeoJSON does not close r.
func ReadGeoJSON(r io.Reader) (feature.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidInput, err, "read geojson")
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidFormat, err, "decode geojson")
	}

	var fc featureCollection
	switch head.Type {
	case "FeatureCollection":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidFormat, err, "decode feature collection")
		}
	case "Feature":
		var f geoFeature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidFormat, err, "decode feature")
		}
		fc.Features = []geoFeature{f}
	default:
		return nil, gcerrors.New(gcerrors.ErrCodeInvalidFormat, "expected a FeatureCollection or Feature, got type %q", head.Type)
	}

	out := make(feature.Collection, 0, len(fc.Features))
	for i, gf := range fc.Features {
		f, err := decodeFeature(i, gf)
		if err != nil {
			return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidFormat, err, "feature %d", i)
		}
		out = append(out, f)
	}
	return out, nil
}

func decodeFeature(i int, gf geoFeature) (*feature.Feature, error) {
	id, err := decodeID(gf.ID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = strconv.Itoa(i)
	}

	f := feature.New(id, nil)
	for k, v := range gf.Properties {
		f.Properties[k] = v
	}

	raw := bytes.TrimSpace(gf.Geometry)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return f, nil
	}
	g, err := geojson.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	f.Geometry = g
	return f, nil
}

// decodeID accepts a string or a number.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or a number: %s", raw)
	}
	return n.String(), nil
}

// ImportGeoJSON reads a GeoJSON file at path. A missing file yields a
// FILE_NOT_FOUND error.
func ImportGeoJSON(path string) (feature.Collection, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGeoJSON(f)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gcerrors.Wrap(gcerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	return f, nil
}
