package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Skufu/symptomcheck/internal/feedback"
	"github.com/Skufu/symptomcheck/internal/prediction"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 90 * time.Second

	maxErrorBody = 64 << 10
)

// TransportError means the proxy could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Reason is the text shown to the user for this failure.
func (e *TransportError) Reason() string { return e.Err.Error() }

// ProtocolError means the proxy answered, but not with a usable result.
type ProtocolError struct {
	Status  int
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Reason is the text shown to the user: the server's error field, or the
// status when the server sent none.
func (e *ProtocolError) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed with status %d", e.Status)
}

// HTTPStatusCode exposes the status for callers that branch on it.
func (e *ProtocolError) HTTPStatusCode() int { return e.Status }

// Client talks to a running symptom checker server.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Predict posts the input to /api/predict. Failures wrap a TransportError or
// a ProtocolError. A 2xx body that does not satisfy the prediction schema is
// a ProtocolError too.
func (c *Client) Predict(ctx context.Context, in prediction.UserInput) (*prediction.Prediction, error) {
	var raw json.RawMessage
	status, err := c.postJSON(ctx, "/api/predict", in, &raw)
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	p, err := prediction.ParsePrediction(string(raw))
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", &ProtocolError{Status: status, Message: "malformed response body: " + err.Error()})
	}
	return p, nil
}

// FeedbackResult mirrors the /api/feedback response.
type FeedbackResult struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Persisted bool   `json:"persisted"`
}

func (c *Client) SubmitFeedback(ctx context.Context, s feedback.Submission) (*FeedbackResult, error) {
	var out FeedbackResult
	if _, err := c.postJSON(ctx, "/api/feedback", s, &out); err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &ProtocolError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &ProtocolError{Status: resp.StatusCode, Message: "malformed response body: " + err.Error()}
	}
	return resp.StatusCode, nil
}

func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Error
}

// IsTransport reports whether err came from failing to reach the server.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
