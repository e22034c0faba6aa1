package predict

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/car-price-api/internal/pipeline"
	"github.com/aanand-mishra/car-price-api/internal/types"
	"github.com/aanand-mishra/car-price-api/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{"year":2017,"engineSize":2.0,"mpg":40.5,"mileage":15000,"transmission":"Manual"}`

type fakePredictor struct {
	value  float64
	err    error
	frames []pipeline.Frame
}

func (f *fakePredictor) Predict(frame pipeline.Frame) (float64, error) {
	f.frames = append(f.frames, frame)
	return f.value, f.err
}

func newTestRouter(model Predictor, warn *bytes.Buffer) *http.ServeMux {
	router := http.NewServeMux()
	router.HandleFunc("GET /{$}", Welcome())
	router.HandleFunc("POST /predict", New(model, slog.New(slog.NewTextHandler(warn, nil))))
	return router
}

func post(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWelcome(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &bytes.Buffer{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, WelcomeText, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestPredict_Constant(t *testing.T) {
	model := &fakePredictor{value: 23511.5}
	router := newTestRouter(model, &bytes.Buffer{})

	rec := post(t, router, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "predictions": "23511.5"}`, rec.Body.String())

	require.Len(t, model.frames, 1)
	assert.Equal(t, pipeline.Frame{
		"year":         2017,
		"engineSize":   2.0,
		"mpg":          40.5,
		"mileage":      15000.0,
		"transmission": "Manual",
	}, model.frames[0])
}

func TestPredict_ResponseShape(t *testing.T) {
	doc := pipeline.Document{
		Features: []pipeline.Feature{
			{Name: "year", Kind: pipeline.KindNumeric, Mean: 2015},
			{Name: "engineSize", Kind: pipeline.KindNumeric},
			{Name: "mpg", Kind: pipeline.KindNumeric},
			{Name: "mileage", Kind: pipeline.KindNumeric},
			{Name: "transmission", Kind: pipeline.KindCategorical, Categories: types.Transmissions},
		},
		Regressor: pipeline.Regressor{
			Type:         pipeline.RegressorLinear,
			Intercept:    15000,
			Coefficients: []float64{800, 2500, -20, -0.05, -500, 300, 900},
		},
	}
	model, err := pipeline.Compile(doc)
	require.NoError(t, err)
	router := newTestRouter(model, &bytes.Buffer{})

	bodies := []string{
		validBody,
		`{"year":2020,"engineSize":1.4,"mpg":55.4,"mileage":0,"transmission":"Automatic"}`,
		`{"year":2009,"engineSize":3.0,"mpg":30.1,"mileage":98000,"transmission":"Semi-Auto"}`,
	}

	for _, body := range bodies {
		rec := post(t, router, body)
		require.Equal(t, http.StatusOK, rec.Code, body)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Contains(t, got, "success")
		assert.Contains(t, got, "predictions")
		assert.Equal(t, true, got["success"])
	}
}

func TestPredict_AttributeError(t *testing.T) {
	model := &fakePredictor{err: &pipeline.AttributeError{Column: "fuelType", Reason: "missing from input"}}
	var warn bytes.Buffer
	router := newTestRouter(model, &warn)

	rec := post(t, router, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	var got types.PredictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.Equal(t, `column "fuelType": missing from input`, got.Predictions)

	assert.Contains(t, warn.String(), "time=")
	assert.Contains(t, warn.String(), "level=WARN")
	assert.Contains(t, warn.String(), "fuelType")
}

func TestPredict_OtherErrorIsServerError(t *testing.T) {
	var warn bytes.Buffer
	router := newTestRouter(&fakePredictor{err: pipeline.ErrNonFinite}, &warn)

	rec := post(t, router, validBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, warn.String())

	var got response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, response.StatusError, got.Status)
	assert.Equal(t, pipeline.ErrNonFinite.Error(), got.Error)
}

func TestPredict_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is empty"},
		{"malformed", `{"year":`, ""},
		{"wrong type", `{"year":"2017","engineSize":2.0,"mpg":40.5,"mileage":15000,"transmission":"Manual"}`, ""},
		{"missing field", `{"year":2017,"engineSize":2.0,"mpg":40.5,"transmission":"Manual"}`, "field mileage is required"},
		{"bad transmission", `{"year":2017,"engineSize":2.0,"mpg":40.5,"mileage":1,"transmission":"CVT"}`, "field transmission must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakePredictor{err: errors.New("must not be called")}
			rec := post(t, newTestRouter(model, &bytes.Buffer{}), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, model.frames)

			var got response.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, response.StatusError, got.Status)
			assert.Contains(t, got.Error, tt.want)
		})
	}
}

func TestPredict_ZeroMileageIsPresent(t *testing.T) {
	model := &fakePredictor{value: 1}
	rec := post(t, newTestRouter(model, &bytes.Buffer{}),
		`{"year":2020,"engineSize":1.0,"mpg":50,"mileage":0,"transmission":"Automatic"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, model.frames, 1)
	assert.Equal(t, 0.0, model.frames[0]["mileage"])
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "18000", FormatPrice(18000))
	assert.Equal(t, "23511.5", FormatPrice(23511.5))
	assert.Equal(t, "-12.25", FormatPrice(-12.25))
}
