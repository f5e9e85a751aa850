package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Skufu/symptomcheck/internal/client"
	"github.com/Skufu/symptomcheck/internal/feedback"
	"github.com/Skufu/symptomcheck/internal/intake"
	"github.com/Skufu/symptomcheck/internal/presenter"
	"github.com/Skufu/symptomcheck/internal/symptoms"
	"github.com/Skufu/symptomcheck/internal/ui"
)

type options struct {
	server   string
	age      int
	gender   string
	symptoms string
	list     bool

	feedbackName    string
	feedbackEmail   string
	feedbackMessage string
}

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("symptomcheck", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.server, "server", envOr("SYMPTOMCHECK_URL", client.DefaultBaseURL), "symptom checker server base URL")
	fs.IntVar(&opts.age, "age", intake.DefaultAge, "patient age (1-120)")
	fs.StringVar(&opts.gender, "gender", intake.DefaultGender, "patient gender: male, female or other")
	fs.StringVar(&opts.symptoms, "symptoms", "", "comma separated symptom ids, see -list")
	fs.BoolVar(&opts.list, "list", false, "print the symptom catalog and exit")
	fs.StringVar(&opts.feedbackName, "feedback-name", "", "name to attach to feedback")
	fs.StringVar(&opts.feedbackEmail, "feedback-email", "", "email to attach to feedback")
	fs.StringVar(&opts.feedbackMessage, "feedback", "", "send this feedback message after a successful analysis")
	err := fs.Parse(args)
	return opts, err
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.list {
		return listSymptoms(out)
	}

	form, err := buildForm(opts)
	if err != nil {
		return err
	}

	c := client.New(opts.server, nil)
	session := ui.NewSession(c.Predict, func(st ui.State) {
		if st.Busy() {
			fmt.Fprintln(out, "Analyzing...")
		}
	})

	if err := session.SubmitForm(ctx, form); err != nil {
		if st := session.State(); st.Phase == ui.Failure {
			return errors.New(st.Err)
		}
		return err
	}

	st := session.State()
	if err := presenter.RenderText(out, presenter.NewView(*st.Prediction)); err != nil {
		return err
	}
	fmt.Fprintln(out, presenter.MedicalDisclaimer)

	if !st.ShowFeedback() || opts.feedbackMessage == "" {
		return nil
	}
	res, err := c.SubmitFeedback(ctx, feedback.Submission{
		Name:    opts.feedbackName,
		Email:   opts.feedbackEmail,
		Message: opts.feedbackMessage,
	})
	if err != nil {
		return errors.New("Failed to submit feedback: " + ui.Reason(err))
	}
	fmt.Fprintln(out, feedbackNotice(res))
	return nil
}

func buildForm(opts options) (*intake.Form, error) {
	form := intake.NewForm()
	if err := form.SetAge(opts.age); err != nil {
		return nil, err
	}
	if err := form.SetGender(opts.gender); err != nil {
		return nil, err
	}
	for _, id := range strings.Split(opts.symptoms, ",") {
		id = strings.TrimSpace(id)
		if id == "" || form.Selected(id) {
			continue
		}
		if err := form.Toggle(id); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func listSymptoms(out io.Writer) error {
	for _, s := range symptoms.All() {
		if _, err := fmt.Fprintf(out, "%-22s %s\n", s.ID, s.Label); err != nil {
			return err
		}
	}
	return nil
}

func feedbackNotice(res *client.FeedbackResult) string {
	if res.Persisted {
		return "Thank you for your feedback!"
	}
	return "Thank you for your feedback! It is not stored on this server."
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
