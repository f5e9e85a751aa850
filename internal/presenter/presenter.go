package presenter

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/Skufu/symptomcheck/internal/prediction"
)

const (
	TreatmentDisclaimer = "Note: These are general suggestions. Always consult a healthcare professional."
	MedicalDisclaimer   = "This tool is for informational and educational purposes only and is not a substitute for professional medical advice, diagnosis, or treatment. Always seek the advice of your physician or other qualified health provider with any questions you may have regarding a medical condition."

	barWidth = 30
)

// ChartEntry is one bar of the confidence chart.
type ChartEntry struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Percent is the confidence as a whole percentage, clamped to the [0,1] axis.
func (e ChartEntry) Percent() int {
	return Percent(e.Confidence)
}

// ChartData puts the primary prediction and the differentials on one list,
// highest confidence first. The input order does not matter.
func ChartData(p prediction.Prediction) []ChartEntry {
	out := make([]ChartEntry, 0, len(p.DifferentialDiagnosis)+1)
	out = append(out, ChartEntry{Name: p.PredictedDisease, Confidence: p.ConfidenceScore})
	for _, d := range p.DifferentialDiagnosis {
		out = append(out, ChartEntry{Name: d.Disease, Confidence: d.Confidence})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// Percent rounds a [0,1] confidence to the nearest whole percent.
func Percent(confidence float64) int {
	return int(math.Round(clamp01(confidence) * 100))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// View is everything the result page and the terminal renderer need.
type View struct {
	PredictedDisease  string
	ConfidencePercent int
	Explanation       string
	ImportantSymptoms []string
	Precautions       []string
	Treatment         []string
	Disclaimer        string
	Chart             []ChartEntry
}

func NewView(p prediction.Prediction) View {
	return View{
		PredictedDisease:  p.PredictedDisease,
		ConfidencePercent: Percent(p.ConfidenceScore),
		Explanation:       p.Explanation,
		ImportantSymptoms: p.ImportantSymptoms,
		Precautions:       p.Precautions,
		Treatment:         p.Treatment,
		Disclaimer:        TreatmentDisclaimer,
		Chart:             ChartData(p),
	}
}

// RenderText writes the view for a terminal.
func RenderText(w io.Writer, v View) error {
	var b strings.Builder

	b.WriteString("Analysis Result\n")
	b.WriteString("===============\n\n")
	fmt.Fprintf(&b, "Predicted: %s\n", v.PredictedDisease)
	fmt.Fprintf(&b, "Confidence: %s %d%%\n\n", bar(float64(v.ConfidencePercent)/100), v.ConfidencePercent)

	if v.Explanation != "" {
		b.WriteString("Explanation\n")
		fmt.Fprintf(&b, "  %s\n\n", v.Explanation)
	}
	if len(v.ImportantSymptoms) > 0 {
		b.WriteString("Key symptoms: ")
		tags := make([]string, len(v.ImportantSymptoms))
		for i, s := range v.ImportantSymptoms {
			tags[i] = "[" + s + "]"
		}
		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n\n")
	}
	writeList(&b, "Precautions", v.Precautions)
	writeList(&b, "Treatment", v.Treatment)
	fmt.Fprintf(&b, "  %s\n\n", v.Disclaimer)

	b.WriteString("Confidence by disease\n")
	width := 0
	for _, e := range v.Chart {
		if len(e.Name) > width {
			width = len(e.Name)
		}
	}
	for _, e := range v.Chart {
		fmt.Fprintf(&b, "  %-*s %s %3d%%\n", width, e.Name, bar(e.Confidence), e.Percent())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(title)
	b.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
	b.WriteString("\n")
}

// bar draws a fixed-width bar for a confidence on the [0,1] axis.
func bar(confidence float64) string {
	filled := int(math.Round(clamp01(confidence) * barWidth))
	return "|" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "|"
}
