package intake

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Skufu/symptomcheck/internal/prediction"
	"github.com/Skufu/symptomcheck/internal/symptoms"
)

const (
	DefaultAge    = 30
	DefaultGender = prediction.GenderMale

	// NoSymptomsWarning is shown to the user when they submit an empty selection.
	NoSymptomsWarning = "Please select at least one symptom."
)

var (
	ErrNoSymptoms     = errors.New(NoSymptomsWarning)
	ErrUnknownSymptom = errors.New("unknown symptom")
	ErrAgeOutOfRange  = fmt.Errorf("age must be between %d and %d", prediction.MinAge, prediction.MaxAge)
	ErrInvalidGender  = errors.New("gender must be male, female or other")
)

// Form holds the symptom checker input state between edits. The zero value is
// not ready for use; call NewForm.
type Form struct {
	age      int
	gender   string
	selected map[string]struct{}
}

func NewForm() *Form {
	return &Form{
		age:      DefaultAge,
		gender:   DefaultGender,
		selected: make(map[string]struct{}),
	}
}

func (f *Form) Age() int       { return f.age }
func (f *Form) Gender() string { return f.gender }

func (f *Form) SetAge(age int) error {
	if age < prediction.MinAge || age > prediction.MaxAge {
		return ErrAgeOutOfRange
	}
	f.age = age
	return nil
}

func (f *Form) SetGender(gender string) error {
	if !prediction.ValidGender(gender) {
		return ErrInvalidGender
	}
	f.gender = gender
	return nil
}

// Toggle flips membership of id in the selection.
func (f *Form) Toggle(id string) error {
	if !symptoms.Known(id) {
		return fmt.Errorf("%w: %q", ErrUnknownSymptom, id)
	}
	if _, ok := f.selected[id]; ok {
		delete(f.selected, id)
	} else {
		f.selected[id] = struct{}{}
	}
	return nil
}

func (f *Form) Selected(id string) bool {
	_, ok := f.selected[id]
	return ok
}

// SelectedSymptoms returns the selection in catalog order.
func (f *Form) SelectedSymptoms() []string {
	out := make([]string, 0, len(f.selected))
	for id := range f.selected {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return symptoms.Position(out[i]) < symptoms.Position(out[j])
	})
	return out
}

// Submit hands the current input to handler. An empty selection is rejected
// before handler is called.
func (f *Form) Submit(handler func(prediction.UserInput)) error {
	if len(f.selected) == 0 {
		return ErrNoSymptoms
	}
	handler(prediction.UserInput{
		Age:              f.age,
		Gender:           f.gender,
		SelectedSymptoms: f.SelectedSymptoms(),
	})
	return nil
}
