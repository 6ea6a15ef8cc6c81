package cache

// Keyer builds cache keys.
type Keyer interface {
	// CellKey identifies the culled features of one cell.
	CellKey(inputHash string, opts CellKeyOpts) string
	// GridKey identifies the cell summaries of a whole run.
	GridKey(inputHash string, opts GridKeyOpts) string
}

// CellKeyOpts holds everything besides the input that determines a cell's
// output.
type CellKeyOpts struct {
	Index     int        `json:"index"`
	Bounds    [4]float64 `json:"bounds"`
	Technique string     `json:"technique"`
	Engine    string     `json:"engine,omitempty"`
}

// GridKeyOpts holds everything besides the input that determines a grid.
type GridKeyOpts struct {
	Extent [4]float64 `json:"extent"`
	Policy string     `json:"policy"`
	Engine string     `json:"engine,omitempty"`
}

// DefaultKeyer hashes its inputs into "cell:<sha256>" and "grid:<sha256>"
// keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CellKey implements Keyer.
func (DefaultKeyer) CellKey(inputHash string, opts CellKeyOpts) string {
	return hashKey("cell", inputHash, opts)
}

// GridKey implements Keyer.
func (DefaultKeyer) GridKey(inputHash string, opts GridKeyOpts) string {
	return hashKey("grid", inputHash, opts)
}
