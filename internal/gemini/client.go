package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/prediction"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 60 * time.Second

	jsonMIMEType = "application/json"
)

var (
	// ErrMissingAPIKey is returned by New when no key is configured.
	ErrMissingAPIKey = errors.New("gemini: API key is required")

	// ErrEmptyResponse is returned when the API answers without any candidate text.
	ErrEmptyResponse = errors.New("gemini: response has no text")

	// ErrBlocked is returned when the prompt was rejected by safety filters.
	ErrBlocked = errors.New("gemini: prompt blocked")
)

type Config struct {
	APIKey    string
	ModelName string
	// Endpoint overrides the API base URL, e.g. for a local stub.
	Endpoint string
	Timeout  time.Duration
}

// Client implements prediction.Model on top of the Gemini API.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		genai:   gc,
		model:   strings.TrimPrefix(cfg.ModelName, "models/"),
		timeout: cfg.Timeout,
		log:     log.With("component", "gemini", "model", cfg.ModelName),
	}, nil
}

func (c *Client) Name() string { return c.model }

// Generate sends one generateContent call constrained to req.Schema and returns
// the concatenated candidate text.
func (c *Client) Generate(ctx context.Context, req prediction.GenerateRequest) (string, error) {
	ctx, span := otel.Tracer("symptomcheck/gemini").Start(ctx, "gemini.generateContent")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", c.model))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: jsonMIMEType,
		ResponseSchema:   toGenaiSchema(req.Schema),
		Temperature:      genai.Ptr(float32(req.Temperature)),
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		span.RecordError(err)
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			c.log.Warn("gemini request rejected", "status", apiErr.Code, "message", apiErr.Message)
			return "", fmt.Errorf("gemini: status %d: %w", apiErr.Code, err)
		}
		c.log.Warn("gemini request failed", "error", err, "elapsed", time.Since(start))
		return "", fmt.Errorf("gemini: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	c.log.Debug("gemini reply received", "elapsed", time.Since(start), "bytes", len(text))
	return text, nil
}

// responseText joins the non-thought parts of the first candidate that has text.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyResponse
}

func toGenaiSchema(s *prediction.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for _, name := range s.PropertyNames() {
			out.Properties[name] = toGenaiSchema(s.Properties[name])
		}
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	return out
}
