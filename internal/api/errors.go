package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Skufu/symptomcheck/internal/prediction"
)

// Messages returned to clients. Internal causes are logged, never sent.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgConfiguration    = "Server configuration error: API_KEY not set."
	MsgPredictionFailed = "Failed to get prediction from AI."
	MsgInvalidPayload   = "invalid payload"
	MsgFeedbackFailed   = "Failed to submit feedback."
)

type apiError struct {
	Status int
	Code   string
	Err    error
}

func (e *apiError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *apiError) Unwrap() error { return e.Err }

// publicMessage is the text clients see for a given code.
func (e *apiError) publicMessage() string {
	switch e.Code {
	case "method_not_allowed":
		return MsgMethodNotAllowed
	case "server_configuration":
		return MsgConfiguration
	case "invalid_payload":
		return MsgInvalidPayload
	default:
		return MsgPredictionFailed
	}
}

func classifyPredictError(err error) *apiError {
	switch {
	case errors.Is(err, prediction.ErrMethodNotAllowed):
		return &apiError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Err: err}
	case errors.Is(err, prediction.ErrServerConfiguration):
		return &apiError{Status: http.StatusInternalServerError, Code: "server_configuration", Err: err}
	case errors.Is(err, prediction.ErrInvalidOutput):
		return &apiError{Status: http.StatusInternalServerError, Code: "invalid_model_output", Err: err}
	default:
		return &apiError{Status: http.StatusInternalServerError, Code: "upstream_failure", Err: err}
	}
}

// PublicMessage is the client-facing text for an error returned by the
// prediction service.
func PublicMessage(err error) string {
	return classifyPredictError(err).publicMessage()
}
