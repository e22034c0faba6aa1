// Package inference is the form service's HTTP client for the inference
// service's POST /predict endpoint.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aanand-mishra/car-price-api/internal/http/middleware"
	"github.com/aanand-mishra/car-price-api/internal/types"
	"github.com/google/uuid"
)

// ErrConnection is returned when the inference service cannot be reached or
// does not answer within the client timeout.
var ErrConnection = errors.New("ConnectionError")

// PredictionError is a well-formed {"success": false} answer.
type PredictionError struct {
	Message string
}

func (e *PredictionError) Error() string {
	return e.Message
}

// StatusError is a non-2xx answer from the inference service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference service returned %d %s", e.Code, http.StatusText(e.Code))
}

// Client calls one inference service.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// New returns a Client for the predict endpoint at url. Every call is
// bounded by timeout.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:     url,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Predict sends req and returns the "predictions" string of a successful
// answer.
func (c *Client) Predict(ctx context.Context, req types.PredictionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("inference.Predict: marshal: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("inference.Predict: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")

	id := middleware.RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	httpReq.Header.Set(middleware.RequestIDHeader, id)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	var out types.PredictionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("inference.Predict: decode: %w", err)
	}

	if !out.Success {
		return "", &PredictionError{Message: out.Predictions}
	}

	return out.Predictions, nil
}
