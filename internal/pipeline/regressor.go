package pipeline

import "fmt"

type regressor interface {
	predict(x []float64) float64
	describe() string
}

func compileRegressor(r Regressor, width int) (regressor, error) {
	switch r.Type {
	case RegressorLinear:
		if len(r.Coefficients) != width {
			return nil, compileErrorf("regressor.coefficients",
				"got %d coefficients for %d encoded features", len(r.Coefficients), width)
		}
		coef := make([]float64, width)
		copy(coef, r.Coefficients)
		return &linear{intercept: r.Intercept, coef: coef}, nil

	case RegressorGradientBoosting:
		if len(r.Trees) == 0 {
			return nil, compileErrorf("regressor.trees", "at least one tree is required")
		}
		trees := make([][]Node, len(r.Trees))
		for i, t := range r.Trees {
			if err := checkTree(t, width); err != nil {
				return nil, compileErrorf(fmt.Sprintf("regressor.trees[%d]", i), "%s", err)
			}
			nodes := make([]Node, len(t.Nodes))
			copy(nodes, t.Nodes)
			trees[i] = nodes
		}
		return &ensemble{base: r.BaseScore, trees: trees}, nil

	default:
		return nil, compileErrorf("regressor.type", "unknown regressor %q", r.Type)
	}
}

// checkTree requires children to sit after their parent, which rules out
// cycles and guarantees every walk ends at a leaf.
func checkTree(t Tree, width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return fmt.Errorf("node %d: feature %d out of range [0,%d)", i, n.Feature, width)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d: child %d out of range (%d,%d)", i, child, i, len(t.Nodes))
			}
		}
	}
	return nil
}

type linear struct {
	intercept float64
	coef      []float64
}

func (l *linear) predict(x []float64) float64 {
	y := l.intercept
	for i, w := range l.coef {
		y += w * x[i]
	}
	return y
}

func (l *linear) describe() string {
	return fmt.Sprintf("linear(%d)", len(l.coef))
}

type ensemble struct {
	base  float64
	trees [][]Node
}

func (e *ensemble) predict(x []float64) float64 {
	y := e.base
	for _, nodes := range e.trees {
		i := 0
		for !nodes[i].IsLeaf() {
			n := nodes[i]
			if x[n.Feature] < n.Threshold {
				i = n.Left
			} else {
				i = n.Right
			}
		}
		y += *nodes[i].Leaf
	}
	return y
}

func (e *ensemble) describe() string {
	return fmt.Sprintf("gradient_boosting(%d trees)", len(e.trees))
}
