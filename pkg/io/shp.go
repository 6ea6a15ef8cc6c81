package io

import (
	"strconv"
	"strings"

	"github.com/ctessum/geom/encoding/shp"

	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
)

// ImportShapefile reads every record of the shapefile at path. The named
// attribute columns are copied into each feature's properties as strings;
// with no columns every DBF field is copied. A requested column missing from
// the file is an INVALID_INPUT error.
func ImportShapefile(path string, columns ...string) (feature.Collection, error) {
	for _, c := range columns {
		if err := gcerrors.ValidateColumnName(c); err != nil {
			return nil, err
		}
	}

	f, err := open(path)
	if err != nil {
		return nil, err
	}
	f.Close()

	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidFormat, err, "open shapefile %s", path)
	}
	defer dec.Close()

	if len(columns) == 0 {
		columns = nil
		for _, fld := range dec.Fields() {
			if name := strings.TrimSpace(fld.String()); name != "" {
				columns = append(columns, name)
			}
		}
	}

	var out feature.Collection
	for i := 0; ; i++ {
		g, fields, more := dec.DecodeRowFields(columns...)
		if !more {
			break
		}
		ft := feature.New(strconv.Itoa(i), g)
		for _, c := range columns {
			v, ok := fields[c]
			if !ok {
				return nil, gcerrors.New(gcerrors.ErrCodeInvalidInput, "%s: record %d: missing attribute column %s", path, i, c)
			}
			ft.Properties[c] = v
		}
		out = append(out, ft)
	}
	if err := dec.Error(); err != nil {
		return nil, gcerrors.Wrap(gcerrors.ErrCodeInvalidFormat, err, "read shapefile %s", path)
	}
	return out, nil
}
