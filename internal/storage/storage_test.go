package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/car-price-api/internal/pipeline"
	"github.com/aanand-mishra/car-price-api/internal/storage/file"
	"github.com/aanand-mishra/car-price-api/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_PicksBackend(t *testing.T) {
	tests := []struct {
		path   string
		sqlite bool
	}{
		{"models/xgb_pipeline.json", false},
		{"models/xgb_pipeline", false},
		{"models/xgb_pipeline.db", true},
		{"models/xgb_pipeline.SQLite", true},
		{"models/xgb_pipeline.sqlite3", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s, err := Open(tt.path)
			require.NoError(t, err)

			if tt.sqlite {
				assert.IsType(t, &sqlite.SQLite{}, s)
			} else {
				assert.IsType(t, &file.File{}, s)
			}
		})
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestLoadPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	body := `{
		"name": "audi-linear",
		"version": "1",
		"features": [{"name": "year", "kind": "numeric"}],
		"regressor": {"type": "linear", "intercept": 5, "coefficients": [2]}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	p, err := LoadPipeline(path)
	require.NoError(t, err)

	got, err := p.Predict(pipeline.Frame{"year": 10})
	require.NoError(t, err)
	assert.Equal(t, 25.0, got)
}

func TestLoadPipeline_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	body := `{"features": [{"name": "year", "kind": "numeric"}], "regressor": {"type": "linear"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := LoadPipeline(path)
	var compileErr *pipeline.CompileError
	assert.ErrorAs(t, err, &compileErr)
}

func TestLoadPipeline_Missing(t *testing.T) {
	_, err := LoadPipeline(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPipeline_ShippedArtifact(t *testing.T) {
	p, err := LoadPipeline(filepath.Join("..", "..", "models", "xgb_pipeline.json"))
	require.NoError(t, err)

	got, err := p.Predict(pipeline.Frame{
		"year":         2017,
		"engineSize":   2.0,
		"mpg":          40.5,
		"mileage":      15000.0,
		"transmission": "Manual",
	})
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
}
