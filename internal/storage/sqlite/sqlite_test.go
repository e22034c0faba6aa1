package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/car-price-api/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(v float64) *float64 {
	return &v
}

func treeDoc() pipeline.Document {
	return pipeline.Document{
		Name:    "audi-xgb",
		Version: "3",
		Features: []pipeline.Feature{
			{Name: "year", Kind: pipeline.KindNumeric, Mean: 2017, Scale: 2},
			{Name: "mileage", Kind: pipeline.KindNumeric},
			{Name: "transmission", Kind: pipeline.KindCategorical, Categories: []string{"Automatic", "Manual", "Semi-Auto"}},
		},
		Regressor: pipeline.Regressor{
			Type:      pipeline.RegressorGradientBoosting,
			BaseScore: 22000,
			Trees: []pipeline.Tree{
				{Nodes: []pipeline.Node{
					{Feature: 0, Threshold: 0, Left: 1, Right: 2},
					{Leaf: leaf(-1500)},
					{Leaf: leaf(2500)},
				}},
				{Nodes: []pipeline.Node{
					{Feature: 3, Threshold: 0.5, Left: 1, Right: 2},
					{Leaf: leaf(400)},
					{Leaf: leaf(-600)},
				}},
			},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.db")
	want := treeDoc()

	require.NoError(t, New(path).Save(want))

	got, err := New(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// the reloaded document predicts exactly like the original
	p1, err := pipeline.Compile(want)
	require.NoError(t, err)
	p2, err := pipeline.Compile(got)
	require.NoError(t, err)

	frame := pipeline.Frame{"year": 2019, "mileage": 15000.0, "transmission": "Manual"}
	y1, err := p1.Predict(frame)
	require.NoError(t, err)
	y2, err := p2.Predict(frame)
	require.NoError(t, err)
	assert.Equal(t, y1, y2)
}

func TestSave_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.db")
	s := New(path)

	require.NoError(t, s.Save(treeDoc()))

	linear := pipeline.Document{
		Name:    "audi-linear",
		Version: "4",
		Features: []pipeline.Feature{
			{Name: "year", Kind: pipeline.KindNumeric},
		},
		Regressor: pipeline.Regressor{Type: pipeline.RegressorLinear, Intercept: 1, Coefficients: []float64{2}},
	}
	require.NoError(t, s.Save(linear))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, linear, got)
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")

	_, err := New(path).Load()
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestLoad_OutOfSequenceNodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.db")
	require.NoError(t, New(path).Save(treeDoc()))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM tree_nodes WHERE tree = 0 AND node = 1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = New(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of sequence")
}
