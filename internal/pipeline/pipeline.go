// Package pipeline implements the price prediction pipeline loaded by the
// inference service: a column encoder (standard scaling for numeric columns,
// one-hot for categorical ones) feeding a linear or gradient boosted tree
// regressor.
//
// A Pipeline is immutable once compiled and safe for concurrent use.
package pipeline

import (
	"fmt"
	"math"
	"strings"
)

// Frame is a single-row table keyed by column name. Numeric columns expect
// a Go number, categorical columns a string.
type Frame map[string]any

// Pipeline is a compiled Document.
type Pipeline struct {
	name     string
	version  string
	columns  []column
	width    int
	regress  regressor
	features []string
}

type column struct {
	name   string
	kind   string
	offset int
	mean   float64
	scale  float64
	// slot of each category within the one-hot block
	index map[string]int
}

// Compile validates doc and builds a Pipeline from it. Every structural
// problem is reported here so that Predict can only fail on its input.
func Compile(doc Document) (*Pipeline, error) {
	if len(doc.Features) == 0 {
		return nil, compileErrorf("features", "at least one feature is required")
	}

	p := &Pipeline{name: doc.Name, version: doc.Version}
	seen := make(map[string]bool, len(doc.Features))

	for i, f := range doc.Features {
		field := fmt.Sprintf("features[%d]", i)
		if f.Name == "" {
			return nil, compileErrorf(field, "name is empty")
		}
		if seen[f.Name] {
			return nil, compileErrorf(field, "duplicate feature %q", f.Name)
		}
		seen[f.Name] = true

		col := column{name: f.Name, kind: f.Kind, offset: p.width}
		switch f.Kind {
		case KindNumeric:
			col.mean = f.Mean
			col.scale = f.Scale
			if col.scale == 0 {
				col.scale = 1
			}
			p.width++
		case KindCategorical:
			if len(f.Categories) == 0 {
				return nil, compileErrorf(field, "categorical feature %q has no categories", f.Name)
			}
			col.index = make(map[string]int, len(f.Categories))
			for j, c := range f.Categories {
				if _, dup := col.index[c]; dup {
					return nil, compileErrorf(field, "duplicate category %q", c)
				}
				col.index[c] = j
			}
			p.width += len(f.Categories)
		default:
			return nil, compileErrorf(field, "unknown kind %q", f.Kind)
		}

		p.columns = append(p.columns, col)
		p.features = append(p.features, f.Name)
	}

	r, err := compileRegressor(doc.Regressor, p.width)
	if err != nil {
		return nil, err
	}
	p.regress = r

	return p, nil
}

// Predict encodes frame and runs the regressor over it.
//
// It returns an *AttributeError when frame lacks a column or holds a value
// of the wrong shape, and ErrNonFinite when the result is not a number.
func (p *Pipeline) Predict(frame Frame) (float64, error) {
	x := make([]float64, p.width)

	for _, col := range p.columns {
		raw, ok := frame[col.name]
		if !ok {
			return 0, &AttributeError{Column: col.name, Reason: "missing from input"}
		}

		switch col.kind {
		case KindNumeric:
			v, ok := toFloat(raw)
			if !ok {
				return 0, &AttributeError{Column: col.name, Reason: fmt.Sprintf("expected a number, got %T", raw)}
			}
			x[col.offset] = (v - col.mean) / col.scale
		case KindCategorical:
			s, ok := raw.(string)
			if !ok {
				return 0, &AttributeError{Column: col.name, Reason: fmt.Sprintf("expected a string, got %T", raw)}
			}
			// unknown categories leave the whole block at zero
			if j, known := col.index[s]; known {
				x[col.offset+j] = 1
			}
		}
	}

	y := p.regress.predict(x)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, ErrNonFinite
	}

	return y, nil
}

// Features returns the input column names in encoding order.
func (p *Pipeline) Features() []string {
	out := make([]string, len(p.features))
	copy(out, p.features)
	return out
}

// Describe returns a one-line summary suitable for a startup log.
func (p *Pipeline) Describe() string {
	name := p.name
	if name == "" {
		name = "unnamed"
	}
	return fmt.Sprintf("%s@%s columns=[%s] width=%d regressor=%s",
		name, p.version, strings.Join(p.features, ","), p.width, p.regress.describe())
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
