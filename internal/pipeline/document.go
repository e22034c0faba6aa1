package pipeline

// Feature column kinds.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
)

// Regressor types.
const (
	RegressorLinear           = "linear"
	RegressorGradientBoosting = "gradient_boosting"
)

// Document is the serialized form of a prediction pipeline: an ordered list
// of input columns, each encoded into one or more slots of the feature
// vector, followed by a regressor over that vector.
type Document struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Features  []Feature `json:"features"`
	Regressor Regressor `json:"regressor"`
}

// Feature describes one input column and how it is encoded.
//
// Numeric columns occupy one slot, standard-scaled as (x-Mean)/Scale.
// Categorical columns are one-hot encoded over Categories.
type Feature struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Mean       float64  `json:"mean,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Regressor is either a linear model or a gradient boosted tree ensemble,
// selected by Type.
type Regressor struct {
	Type string `json:"type"`

	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`

	BaseScore float64 `json:"base_score,omitempty"`
	Trees     []Tree  `json:"trees,omitempty"`
}

// Tree is a flat array of nodes; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Leaf is nil. A split sends x[Feature] < Threshold to
// Left and everything else (including NaN) to Right.
type Node struct {
	Feature   int      `json:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	Left      int      `json:"left,omitempty"`
	Right     int      `json:"right,omitempty"`
	Leaf      *float64 `json:"leaf,omitempty"`
}

// IsLeaf reports whether n terminates a path.
func (n Node) IsLeaf() bool {
	return n.Leaf != nil
}
