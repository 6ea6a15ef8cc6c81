package grid

import (
	"fmt"
	"math"

	"github.com/matzehuels/gridcut/pkg/config"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
)

// Configuration keys read by PolicyFromConfig.
const (
	KeyCellSize         = "cell_size"
	KeyCullingTechnique = "culling_technique"
	KeySpatializeGroups = "spatialize_groups"
	KeyClusterCulling   = "cluster_culling"
)

// Technique selects how features are assigned to cells.
type Technique int

const (
	// CullByCentroid keeps whole features whose bounding-box center lies in
	// the cell.
	CullByCentroid Technique = iota
	// CullByCropping clips feature geometry to the cell boundary.
	CullByCropping
)

// String returns the configuration spelling of t.
func (t Technique) String() string {
	switch t {
	case CullByCentroid:
		return "centroid"
	case CullByCropping:
		return "crop"
	}
	return fmt.Sprintf("Technique(%d)", int(t))
}

// ParseTechnique parses exactly "centroid" or "crop".
func ParseTechnique(s string) (Technique, error) {
	switch s {
	case "centroid":
		return CullByCentroid, nil
	case "crop":
		return CullByCropping, nil
	}
	return CullByCentroid, fmt.Errorf("unknown culling technique %q (want centroid or crop)", s)
}

// Policy holds the gridding settings. Every field records whether it was
// explicitly set, so Config only emits what the user chose.
//
// SpatializeGroups and ClusterCulling are carried through configuration but
// not interpreted by the Gridder.
type Policy struct {
	CellSize         config.Optional[float64]
	Technique        config.Optional[Technique]
	SpatializeGroups config.Optional[bool]
	ClusterCulling   config.Optional[bool]
}

// DefaultPolicy returns a policy with every field unset: no cell size
// (single-cell grid), centroid culling, spatialize groups on, cluster culling
// off.
func DefaultPolicy() Policy {
	return Policy{
		CellSize:         config.Default(0.0),
		Technique:        config.Default(CullByCentroid),
		SpatializeGroups: config.Default(true),
		ClusterCulling:   config.Default(false),
	}
}

// PolicyFromConfig reads a policy from conf, starting from DefaultPolicy.
// Missing or malformed values keep their defaults and unknown keys are
// ignored. Use ParsePolicyStrict to reject malformed values.
func PolicyFromConfig(conf config.Config) Policy {
	p := DefaultPolicy()
	config.GetOptional(conf, KeyCellSize, &p.CellSize)
	if conf.HasValue(KeyCullingTechnique) {
		if t, err := ParseTechnique(conf.Value(KeyCullingTechnique)); err == nil {
			p.Technique.Set(t)
		}
	}
	config.GetOptional(conf, KeySpatializeGroups, &p.SpatializeGroups)
	config.GetOptional(conf, KeyClusterCulling, &p.ClusterCulling)
	return p
}

// ParsePolicyStrict is PolicyFromConfig but fails with an INVALID_CONFIG
// error when a known key holds a value that does not parse. Unknown keys are
// still ignored.
func ParsePolicyStrict(conf config.Config) (Policy, error) {
	if conf.HasValue(KeyCellSize) {
		if _, err := config.Parse[float64](conf.Value(KeyCellSize)); err != nil {
			return Policy{}, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "%s: %q is not a number", KeyCellSize, conf.Value(KeyCellSize))
		}
	}
	if conf.HasValue(KeyCullingTechnique) {
		if _, err := ParseTechnique(conf.Value(KeyCullingTechnique)); err != nil {
			return Policy{}, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "%s", KeyCullingTechnique)
		}
	}
	for _, key := range []string{KeySpatializeGroups, KeyClusterCulling} {
		if !conf.HasValue(key) {
			continue
		}
		if _, err := config.Parse[bool](conf.Value(key)); err != nil {
			return Policy{}, gcerrors.Wrap(gcerrors.ErrCodeInvalidConfig, err, "%s: %q is not a boolean", key, conf.Value(key))
		}
	}
	return PolicyFromConfig(conf), nil
}

// Config returns the explicitly set fields as configuration. Feeding the
// result to PolicyFromConfig reproduces every set field.
func (p Policy) Config() config.Config {
	c := config.New()
	config.AddOptional(c, KeyCellSize, p.CellSize)
	if t, ok := p.Technique.Get(); ok {
		c.Set(KeyCullingTechnique, t.String())
	}
	config.AddOptional(c, KeySpatializeGroups, p.SpatializeGroups)
	config.AddOptional(c, KeyClusterCulling, p.ClusterCulling)
	return c
}

// HasCellSize reports whether the policy yields a multi-cell grid.
func (p Policy) HasCellSize() bool {
	v, ok := p.CellSize.Get()
	return ok && v > 0 && !math.IsInf(v, 1)
}

// String summarises the effective values.
func (p Policy) String() string {
	size := "none"
	if p.HasCellSize() {
		size = config.Format(p.CellSize.Value())
	}
	return fmt.Sprintf("cell_size=%s technique=%s spatialize_groups=%t cluster_culling=%t",
		size, p.Technique.Value(), p.SpatializeGroups.Value(), p.ClusterCulling.Value())
}
