package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/symptomcheck/internal/feedback"
	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/prediction"
	"github.com/Skufu/symptomcheck/internal/symptoms"
)

// Predictor is satisfied by *prediction.Service.
type Predictor interface {
	Predict(ctx context.Context, in prediction.UserInput) (*prediction.Prediction, error)
}

type Handler struct {
	predictor Predictor
	feedback  feedback.Recorder
	log       *logger.Logger
}

func NewHandler(p Predictor, fb feedback.Recorder, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{predictor: p, feedback: fb, log: log}
}

// Register mounts the JSON API under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/symptoms", h.Symptoms)
	api.POST("/predict", h.Predict)
	api.POST("/feedback", h.Feedback)
}

func (h *Handler) Symptoms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symptoms": symptoms.All()})
}

func (h *Handler) Predict(c *gin.Context) {
	if cfg, ok := h.predictor.(interface{ Configured() bool }); ok && !cfg.Configured() {
		h.fail(c, classifyPredictError(prediction.ErrServerConfiguration))
		return
	}

	var in prediction.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Err: err})
		return
	}
	if err := validateSymptoms(in.SelectedSymptoms); err != nil {
		h.fail(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Err: err})
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), in)
	if err != nil {
		h.fail(c, classifyPredictError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Feedback(c *gin.Context) {
	var sub feedback.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.fail(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Err: err})
		return
	}

	receipt, err := h.feedback.Record(c.Request.Context(), sub)
	if err != nil {
		_ = c.Error(err)
		h.log.Error("feedback submission failed", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": MsgFeedbackFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "received",
		"id":        receipt.ID,
		"persisted": receipt.Persisted,
	})
}

func (h *Handler) fail(c *gin.Context, e *apiError) {
	_ = c.Error(e)
	kv := []interface{}{"code", e.Code, "error", e.Err, "request_id", c.GetString(requestIDKey)}
	switch {
	case e.Code == "server_configuration":
		h.log.Error("prediction unavailable: model credential not configured", kv...)
	case e.Status >= http.StatusInternalServerError:
		h.log.Error("request failed", kv...)
	default:
		h.log.Warn("request rejected", kv...)
	}
	c.JSON(e.Status, gin.H{"error": e.publicMessage()})
}

func validateSymptoms(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !symptoms.Known(id) {
			return fmt.Errorf("unknown symptom %q", id)
		}
		if _, dup := seen[id]; dup {
			return errors.New("duplicate symptom " + id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
