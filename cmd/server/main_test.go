package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Skufu/symptomcheck/internal/feedback"
	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/prediction"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

type countingModel struct {
	calls int
}

func (m *countingModel) Generate(ctx context.Context, req prediction.GenerateRequest) (string, error) {
	m.calls++
	return `{"predictedDisease":"Migraine","confidenceScore":0.7,"explanation":"Headache with nausea.","importantSymptoms":["headache","nausea_vomiting"],"differentialDiagnosis":[{"disease":"Tension Headache","confidence":0.3},{"disease":"Sinusitis","confidence":0.5}],"precautions":["Rest in a dark room","Hydrate"],"treatment":["Ibuprofen","Cold compress"]}`, nil
}

func testRouter(db HealthChecker, model prediction.Model) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return setupRouter(routerDeps{
		DB:          db,
		Predictor:   prediction.NewService(model, nil),
		Feedback:    feedback.NewDiscardRecorder(0, nil),
		CORSOrigins: []string{"*"},
	})
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("ENABLE_DB", "true")
	t.Setenv("DATABASE_URL", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigUsesDefaults(t *testing.T) {
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_TIMEOUT", "")
	t.Setenv("FEEDBACK_DELAY", "")
	t.Setenv("CORS_ORIGINS", "")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" || cfg.GeminiTimeout != 60*time.Second || cfg.FeedbackDelay != time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigMissingKeyIsNotFatal(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("missing credential must not fail startup: %v", err)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatal("expected empty key")
	}
}

func TestLoadConfigFallsBackToAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GeminiAPIKey != "legacy-key" {
		t.Fatalf("expected API_KEY fallback, got %q", cfg.GeminiAPIKey)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("GEMINI_TIMEOUT", "soon")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestRouterHealthz(t *testing.T) {
	router := testRouter(fakeDB{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRouterReadyz(t *testing.T) {
	cases := []struct {
		name string
		db   HealthChecker
		code int
		body string
	}{
		{"disabled", nil, http.StatusOK, `"db":"disabled"`},
		{"healthy", fakeDB{}, http.StatusOK, `"db":"ok"`},
		{"unhealthy", fakeDB{err: errors.New("connection refused")}, http.StatusServiceUnavailable, `"status":"degraded"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(tc.db, nil)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/readyz", nil)
			router.ServeHTTP(w, req)
			if w.Code != tc.code || !strings.Contains(w.Body.String(), tc.body) {
				t.Fatalf("got %d %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRouterPredict(t *testing.T) {
	model := &countingModel{}
	router := testRouter(nil, model)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/predict", strings.NewReader(`{"age":41,"gender":"other","selectedSymptoms":["headache","nausea_vomiting"]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Index(body, "Sinusitis") > strings.Index(body, "Tension Headache") {
		t.Fatalf("expected differentials sorted by confidence: %s", body)
	}
	if model.calls != 1 {
		t.Fatalf("expected one model call, got %d", model.calls)
	}
}

func TestRouterPredictWrongMethod(t *testing.T) {
	model := &countingModel{}
	router := testRouter(nil, model)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/predict", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error"`) {
		t.Fatalf("expected error field, got %s", w.Body.String())
	}
	if model.calls != 0 {
		t.Fatal("model must not be called")
	}
}

func TestRouterPredictMissingCredential(t *testing.T) {
	router := testRouter(nil, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/predict", strings.NewReader(`{"age":41,"gender":"other","selectedSymptoms":["headache"]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "configuration") {
		t.Fatalf("expected configuration error, got %d %s", w.Code, w.Body.String())
	}
}

func TestRouterServesForm(t *testing.T) {
	router := testRouter(nil, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Patient Information") {
		t.Fatalf("expected form page, got %d", w.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := testRouter(nil, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/api/predict", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard CORS, got headers %v", w.Header())
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestRequestLogCarriesTraceID(t *testing.T) {
	prev := otel.GetTracerProvider()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	core, logs := observer.New(zapcore.InfoLevel)
	gin.SetMode(gin.TestMode)
	router := setupRouter(routerDeps{
		Predictor:   prediction.NewService(nil, nil),
		Feedback:    feedback.NewDiscardRecorder(0, nil),
		Log:         &logger.Logger{SugaredLogger: zap.New(core).Sugar()},
		CORSOrigins: []string{"*"},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	traceID, ok := fields["trace_id"].(string)
	if !ok || len(traceID) != 32 || traceID == strings.Repeat("0", 32) {
		t.Fatalf("expected a trace id in %v", fields)
	}
	if fields["request_id"] != w.Header().Get("X-Request-ID") {
		t.Fatalf("request id mismatch: %v vs %s", fields["request_id"], w.Header().Get("X-Request-ID"))
	}
}
