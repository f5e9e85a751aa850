package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/symptomcheck/internal/feedback"
	"github.com/Skufu/symptomcheck/internal/prediction"
)

type fakePredictor struct {
	result *prediction.Prediction
	err    error
	got    []prediction.UserInput
}

func (f *fakePredictor) Predict(ctx context.Context, in prediction.UserInput) (*prediction.Prediction, error) {
	f.got = append(f.got, in)
	return f.result, f.err
}

func newRouter(p *fakePredictor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(p, feedback.NewDiscardRecorder(0, nil), nil).Register(r)
	return r
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestIndexShowsCatalogAndPlaceholder(t *testing.T) {
	router := newRouter(&fakePredictor{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`value="shortness_of_breath"`, "AI Health Analysis Awaits", `value="30"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestAnalyzeWithoutSymptomsWarns(t *testing.T) {
	p := &fakePredictor{}
	router := newRouter(p)

	w := postForm(router, "/analyze", url.Values{"age": {"40"}, "gender": {"female"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Please select at least one symptom.") {
		t.Fatal("expected warning on page")
	}
	if len(p.got) != 0 {
		t.Fatal("predictor must not be called")
	}
}

func TestAnalyzeRendersResult(t *testing.T) {
	p := &fakePredictor{result: &prediction.Prediction{
		PredictedDisease:      "Influenza",
		ConfidenceScore:       0.816,
		Explanation:           "Fever with cough.",
		ImportantSymptoms:     []string{"fever"},
		DifferentialDiagnosis: []prediction.DifferentialDiagnosis{{Disease: "Common Cold", Confidence: 0.4}},
		Precautions:           []string{"Rest"},
		Treatment:             []string{"Fluids"},
	}}
	router := newRouter(p)

	w := postForm(router, "/analyze", url.Values{"age": {"34"}, "gender": {"female"}, "symptoms": {"cough", "fever"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Influenza", "Confidence: 82%", "Common Cold", "Always consult a healthcare professional.", "Was this analysis helpful?"} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if len(p.got) != 1 || p.got[0].Age != 34 || p.got[0].Gender != "female" || len(p.got[0].SelectedSymptoms) != 2 {
		t.Fatalf("unexpected input %+v", p.got)
	}
}

func TestAnalyzeFailureShowsBanner(t *testing.T) {
	router := newRouter(&fakePredictor{err: prediction.ErrUpstream})
	w := postForm(router, "/analyze", url.Values{"symptoms": {"rash"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Failed to get prediction: Failed to get prediction from AI.") {
		t.Fatalf("expected error banner, got %s", body)
	}
	if strings.Contains(body, "Was this analysis helpful?") {
		t.Fatal("feedback form must not show after a failure")
	}
}

func TestAnalyzeRejectsBadFields(t *testing.T) {
	p := &fakePredictor{err: errors.New("unused")}
	router := newRouter(p)
	for _, form := range []url.Values{
		{"age": {"abc"}, "symptoms": {"fever"}},
		{"age": {"200"}, "symptoms": {"fever"}},
		{"gender": {"robot"}, "symptoms": {"fever"}},
		{"symptoms": {"sneezing"}},
	} {
		if w := postForm(router, "/analyze", form); w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%v: expected 422, got %d", form, w.Code)
		}
	}
	if len(p.got) != 0 {
		t.Fatal("predictor must not be called")
	}
}

func TestFeedbackAcknowledgesWithoutClaimingStorage(t *testing.T) {
	router := newRouter(&fakePredictor{})
	w := postForm(router, "/feedback", url.Values{"name": {"Jane"}, "email": {"jane@example.com"}, "message": {"Nice"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "It is not stored on this server.") {
		t.Fatal("expected honest acknowledgment")
	}

	w = postForm(router, "/feedback", url.Values{"name": {"Jane"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
