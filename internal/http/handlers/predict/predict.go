// Package predict contains the HTTP handlers of the inference service.
//
// Handlers are factories: they receive their dependencies once at startup and
// return the http.HandlerFunc the router calls on every request.
//
//	router.HandleFunc("POST /predict", predict.New(model, warnLog))
package predict

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/car-price-api/internal/http/middleware"
	"github.com/aanand-mishra/car-price-api/internal/pipeline"
	"github.com/aanand-mishra/car-price-api/internal/types"
	"github.com/aanand-mishra/car-price-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// WelcomeText is served on GET /.
const WelcomeText = "Welcome to audi car price prediction process. Please use 'http://<address>/predict' to POST"

// Predictor is the read-only prediction model shared by every request.
type Predictor interface {
	Predict(frame pipeline.Frame) (float64, error)
}

var validate = response.NewValidator("json")

// Welcome handles GET /.
func Welcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteText(w, http.StatusOK, WelcomeText)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /predict
//
// Request body (JSON):
//
//	{ "year": 2017, "engineSize": 2.0, "mpg": 40.5, "mileage": 15000, "transmission": "Manual" }
//
// Responses:
//
//	200 { "success": true,  "predictions": "23511.5" }
//	200 { "success": false, "predictions": "<attribute error>" }  (also logged to warn)
//	400 empty body, malformed JSON, or a missing / invalid field
//	500 any other prediction failure
//
// ─────────────────────────────────────────────────────────────────────────────
func New(model Predictor, warn *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := middleware.RequestID(r.Context())

		var req types.PredictionRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
			return
		}

		price, err := model.Predict(Frame(req))
		if err != nil {
			var attrErr *pipeline.AttributeError
			if errors.As(err, &attrErr) {
				warn.Warn("Exception",
					slog.String("request_id", id),
					slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusOK, types.PredictionResponse{
					Success:     false,
					Predictions: err.Error(),
				})
				return
			}

			slog.Error("prediction failed",
				slog.String("request_id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		out := FormatPrice(price)
		slog.Debug("prediction", slog.String("request_id", id), slog.String("price", out))

		response.WriteJSON(w, http.StatusOK, types.PredictionResponse{
			Success:     true,
			Predictions: out,
		})
	}
}

// Frame turns a validated request into the single-row frame the pipeline
// consumes by column name.
func Frame(req types.PredictionRequest) pipeline.Frame {
	return pipeline.Frame{
		"year":         *req.Year,
		"engineSize":   *req.EngineSize,
		"mpg":          *req.MPG,
		"mileage":      *req.Mileage,
		"transmission": req.Transmission,
	}
}

// FormatPrice renders a prediction with the shortest decimal form that
// round-trips, e.g. 23511.5 or 18000.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
