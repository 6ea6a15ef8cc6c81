package io

import (
	"path/filepath"
	"strings"

	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
)

// Extensions lists the input file extensions Import understands.
var Extensions = []string{".geojson", ".json", ".shp"}

// Import reads features from path, choosing the format from its extension.
// columns only apply to shapefiles; GeoJSON features keep all properties.
func Import(path string, columns ...string) (feature.Collection, error) {
	if err := gcerrors.ValidateInputPath(path, Extensions...); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return ImportShapefile(path, columns...)
	default:
		return ImportGeoJSON(path)
	}
}
