// Package form contains the HTTP handlers of the form service: an HTML form
// that collects the car's attributes, forwards them to the inference service
// and shows the answer on a results page.
package form

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aanand-mishra/car-price-api/internal/client/inference"
	"github.com/aanand-mishra/car-price-api/internal/http/middleware"
	"github.com/aanand-mishra/car-price-api/internal/types"
	"github.com/aanand-mishra/car-price-api/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"index":     mustPage("index.html"),
	"form":      mustPage("form.html"),
	"predicted": mustPage("predicted.html"),
}

func mustPage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

var validate = response.NewValidator("form")

// Predictor forwards a request to the inference service.
type Predictor interface {
	Predict(ctx context.Context, req types.PredictionRequest) (string, error)
}

type formView struct {
	Values        types.PredictionForm
	Errors        map[string]string
	Message       string
	Transmissions []string
}

type resultView struct {
	Price string
	Error string
	Raw   string
}

// render buffers the page so a template failure still yields a clean 500.
func render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("render failed", slog.String("page", page), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Index handles GET /.
func Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, "index", nil)
	}
}

// Show handles GET /predict_form with an empty form.
func Show() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, "form", formView{Transmissions: types.Transmissions})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Submit handles POST /predict_form
//
// An invalid form is re-rendered with per-field messages and status 400; the
// inference service is not called. Otherwise the request is forwarded and the
// browser is redirected to /predicted/<result>, where result is the predicted
// price, {"error": "ConnectionError"} when the inference service is
// unreachable, or {"error": "<message>"} for any other upstream failure.
// ─────────────────────────────────────────────────────────────────────────────
func Submit(client Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := middleware.RequestID(r.Context())

		if err := r.ParseForm(); err != nil {
			render(w, http.StatusBadRequest, "form", formView{
				Message:       "could not read the submitted form",
				Transmissions: types.Transmissions,
			})
			return
		}

		values := types.PredictionForm{
			Year:         strings.TrimSpace(r.PostFormValue("year")),
			EngineSize:   strings.TrimSpace(r.PostFormValue("engineSize")),
			MPG:          strings.TrimSpace(r.PostFormValue("mpg")),
			Mileage:      strings.TrimSpace(r.PostFormValue("mileage")),
			Transmission: r.PostFormValue("transmission"),
		}
		view := formView{Values: values, Transmissions: types.Transmissions}

		if err := validate.Struct(values); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				view.Errors = response.FieldErrors(verrs)
			} else {
				view.Message = err.Error()
			}
			slog.Info("form rejected", slog.String("request_id", id), slog.Any("errors", view.Errors))
			render(w, http.StatusBadRequest, "form", view)
			return
		}

		req, fieldErrs := coerce(values)
		if len(fieldErrs) > 0 {
			view.Errors = fieldErrs
			render(w, http.StatusBadRequest, "form", view)
			return
		}

		result, err := client.Predict(r.Context(), req)
		if err != nil {
			slog.Warn("prediction failed",
				slog.String("request_id", id),
				slog.String("error", err.Error()))
			result = errorPayload(err)
		}

		http.Redirect(w, r, predictedPath(result), http.StatusFound)
	}
}

// predictedPath builds the redirect target for result. A bare "." or ".."
// would be removed as a dot segment by http.Redirect and by browsers, so
// those are sent JSON-quoted and parseResult unquotes them.
func predictedPath(result string) string {
	if result == "." || result == ".." {
		result = strconv.Quote(result)
	}
	return "/predicted/" + url.PathEscape(result)
}

// coerce converts the validated strings to their wire types. The "integer"
// and "float" rules use the same parsers, so errors here mirror theirs.
func coerce(f types.PredictionForm) (types.PredictionRequest, map[string]string) {
	errs := make(map[string]string)

	year, err := strconv.Atoi(f.Year)
	if err != nil {
		errs["year"] = "must be a whole number"
	}
	parse := func(field, s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs[field] = "must be a number"
		}
		return v
	}
	engineSize := parse("engineSize", f.EngineSize)
	mpg := parse("mpg", f.MPG)
	mileage := parse("mileage", f.Mileage)

	return types.NewPredictionRequest(year, engineSize, mpg, mileage, f.Transmission), errs
}

func errorPayload(err error) string {
	msg := err.Error()
	if errors.Is(err, inference.ErrConnection) {
		msg = inference.ErrConnection.Error()
	}

	b, mErr := json.Marshal(map[string]string{"error": msg})
	if mErr != nil {
		return fmt.Sprintf(`{"error": %q}`, msg)
	}
	return string(b)
}

// Predicted handles GET /predicted/{response}.
func Predicted() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, "predicted", parseResult(r.PathValue("response")))
	}
}

// parseResult decodes the value carried in the URL. Numbers keep their exact
// text, JSON strings are unquoted, and anything that is not JSON is shown
// as-is.
func parseResult(raw string) resultView {
	if !json.Valid([]byte(raw)) {
		return resultView{Raw: raw}
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return resultView{Raw: raw}
	}

	switch t := v.(type) {
	case json.Number:
		return resultView{Price: t.String()}
	case string:
		return resultView{Raw: t}
	case map[string]any:
		if e, ok := t["error"]; ok {
			return resultView{Error: fmt.Sprint(e)}
		}
	}

	return resultView{Raw: raw}
}
