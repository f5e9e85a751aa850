package web

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/symptomcheck/internal/api"
	"github.com/Skufu/symptomcheck/internal/feedback"
	"github.com/Skufu/symptomcheck/internal/intake"
	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/prediction"
	"github.com/Skufu/symptomcheck/internal/presenter"
	"github.com/Skufu/symptomcheck/internal/symptoms"
	"github.com/Skufu/symptomcheck/internal/ui"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}

type symptomOption struct {
	symptoms.Symptom
	Selected bool
}

type feedbackAck struct {
	Persisted bool
}

type page struct {
	Symptoms          []symptomOption
	Genders           []string
	Age               int
	Gender            string
	Warning           string
	State             ui.State
	View              *presenter.View
	Feedback          *feedbackAck
	FeedbackError     string
	MedicalDisclaimer string
}

// Handler serves the server-rendered symptom checker.
type Handler struct {
	predictor api.Predictor
	feedback  feedback.Recorder
	log       *logger.Logger
}

func NewHandler(p api.Predictor, fb feedback.Recorder, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{predictor: p, feedback: fb, log: log}
}

// Register installs the templates and page routes on r.
func (h *Handler) Register(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())
	r.GET("/", h.Index)
	r.POST("/analyze", h.Analyze)
	r.POST("/feedback", h.Feedback)
}

func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", newPage(intake.NewForm(), ui.IdleState()))
}

func (h *Handler) Analyze(c *gin.Context) {
	form, warning := formFromRequest(c)
	if warning == "" {
		var in prediction.UserInput
		if err := form.Submit(func(u prediction.UserInput) { in = u }); err != nil {
			warning = err.Error()
		} else {
			c.HTML(http.StatusOK, "index.html", h.run(c, form, in))
			return
		}
	}

	p := newPage(form, ui.IdleState())
	p.Warning = warning
	c.HTML(http.StatusUnprocessableEntity, "index.html", p)
}

func (h *Handler) run(c *gin.Context, form *intake.Form, in prediction.UserInput) page {
	result, err := h.predictor.Predict(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		h.log.Error("prediction failed", "error", err, "request_id", c.GetString("request_id"))
		return newPage(form, ui.FailureState(ui.FailurePrefix+api.PublicMessage(err)))
	}
	p := newPage(form, ui.SuccessState(result))
	view := presenter.NewView(*result)
	p.View = &view
	return p
}

func (h *Handler) Feedback(c *gin.Context) {
	p := newPage(intake.NewForm(), ui.IdleState())

	var sub feedback.Submission
	if err := c.ShouldBind(&sub); err != nil {
		p.FeedbackError = "Please fill in your name, a valid email and a message."
		c.HTML(http.StatusUnprocessableEntity, "index.html", p)
		return
	}
	receipt, err := h.feedback.Record(c.Request.Context(), sub)
	if err != nil {
		_ = c.Error(err)
		h.log.Error("feedback submission failed", "error", err)
		p.FeedbackError = api.MsgFeedbackFailed
		c.HTML(http.StatusInternalServerError, "index.html", p)
		return
	}
	p.Feedback = &feedbackAck{Persisted: receipt.Persisted}
	c.HTML(http.StatusOK, "index.html", p)
}

func formFromRequest(c *gin.Context) (*intake.Form, string) {
	form := intake.NewForm()
	if raw := c.PostForm("age"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil {
			return form, intake.ErrAgeOutOfRange.Error()
		}
		if err := form.SetAge(age); err != nil {
			return form, err.Error()
		}
	}
	if g := c.PostForm("gender"); g != "" {
		if err := form.SetGender(g); err != nil {
			return form, err.Error()
		}
	}
	for _, id := range c.PostFormArray("symptoms") {
		if form.Selected(id) {
			continue
		}
		if err := form.Toggle(id); err != nil {
			return form, err.Error()
		}
	}
	return form, ""
}

func newPage(form *intake.Form, st ui.State) page {
	all := symptoms.All()
	opts := make([]symptomOption, len(all))
	for i, s := range all {
		opts[i] = symptomOption{Symptom: s, Selected: form.Selected(s.ID)}
	}
	return page{
		Symptoms:          opts,
		Genders:           []string{prediction.GenderMale, prediction.GenderFemale, prediction.GenderOther},
		Age:               form.Age(),
		Gender:            form.Gender(),
		State:             st,
		MedicalDisclaimer: presenter.MedicalDisclaimer,
	}
}
