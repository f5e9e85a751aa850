package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Skufu/symptomcheck/internal/logger"
)

// Temperature is fixed low to keep the model close to the schema.
const Temperature = 0.2

// GenerateRequest is one structured-output call to the model.
type GenerateRequest struct {
	Prompt      string
	Schema      *Schema
	Temperature float64
}

// Model returns the raw text of a JSON reply for req.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Service turns a UserInput into a normalized Prediction. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	model Model
	log   *logger.Logger
}

// NewService wires the proxy to model. A nil model means the credential was not
// configured; every Predict call then fails with ErrServerConfiguration.
func NewService(model Model, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{model: model, log: log}
}

func (s *Service) Configured() bool {
	return s.model != nil
}

func (s *Service) Predict(ctx context.Context, in UserInput) (*Prediction, error) {
	ctx, span := otel.Tracer("symptomcheck/prediction").Start(ctx, "prediction.Predict")
	defer span.End()
	span.SetAttributes(
		attribute.Int("input.age", in.Age),
		attribute.Int("input.symptom_count", len(in.SelectedSymptoms)),
		attribute.String("schema.version", SchemaVersion),
	)

	if s.model == nil {
		span.SetStatus(codes.Error, "missing credential")
		return nil, ErrServerConfiguration
	}

	raw, err := s.model.Generate(ctx, GenerateRequest{
		Prompt:      BuildPrompt(in),
		Schema:      OutputSchema,
		Temperature: Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	p, err := ParsePrediction(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid model output")
		s.log.Debug("rejected model output", "error", err, "bytes", len(raw))
		return nil, err
	}

	SortDifferentials(p.DifferentialDiagnosis)
	return p, nil
}

// ParsePrediction decodes the model's raw reply. The reply must be a JSON object
// that satisfies OutputSchema; otherwise nothing is returned.
func ParsePrediction(raw string) (*Prediction, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: %w: empty reply", ErrUpstream, ErrInvalidOutput)
	}

	var generic interface{}
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrUpstream, ErrInvalidOutput, err)
	}
	if err := OutputSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrUpstream, ErrInvalidOutput, err)
	}

	var p Prediction
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrUpstream, ErrInvalidOutput, err)
	}
	return &p, nil
}

// SortDifferentials orders diagnoses by descending confidence, keeping the
// model's order for ties.
func SortDifferentials(dd []DifferentialDiagnosis) {
	sort.SliceStable(dd, func(i, j int) bool {
		return dd[i].Confidence > dd[j].Confidence
	})
}
