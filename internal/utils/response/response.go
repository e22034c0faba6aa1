// Package response provides helpers for writing consistent HTTP responses.
//
// The inference service answers in JSON; its error envelope always looks like
//
//	{ "status": "error", "error": "field year is required" }
//
// The form service re-renders HTML, so it needs validation failures per field
// instead of one sentence. Both shapes are built from the same messages.
package response

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const StatusError = "error"

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteText writes a plain-text body with the given status code.
func WriteText(w http.ResponseWriter, status int, body string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	return err
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError joins every failing field into one Response.
//
// Example output:
//
//	{ "status": "error", "error": "field year is required, field transmission must be one of [Manual Semi-Auto Automatic]" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		errMessages = append(errMessages, "field "+e.Field()+" "+message(e))
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// FieldErrors maps each failing field to its message, for inline display
// next to a form input.
func FieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = message(e)
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "integer":
		return "must be a whole number"
	case "float":
		return "must be a number"
	default:
		return "is invalid"
	}
}

// NewValidator returns a validator that reports fields by the name found in
// the given struct tag ("json", "form") instead of the Go field name.
//
// It also knows two string rules: "integer" (strconv.Atoi parses it) and
// "float" (strconv.ParseFloat parses it to a finite number).
func NewValidator(tag string) *validator.Validate {
	v := validator.New()
	v.RegisterValidation("integer", isInteger)
	v.RegisterValidation("float", isFloat)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func isInteger(fl validator.FieldLevel) bool {
	_, err := strconv.Atoi(fl.Field().String())
	return err == nil
}

func isFloat(fl validator.FieldLevel) bool {
	f, err := strconv.ParseFloat(fl.Field().String(), 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
