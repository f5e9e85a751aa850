package symptoms

// Symptom is one selectable entry of the fixed catalog. ID is the stable key used
// for selection state and for the text sent to the model; Icon is a Font Awesome
// class list rendered as-is by the UI.
type Symptom struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var catalog = []Symptom{
	{ID: "fever", Label: "Fever", Icon: "fa-solid fa-temperature-full"},
	{ID: "cough", Label: "Cough", Icon: "fa-solid fa-head-side-cough"},
	{ID: "fatigue", Label: "Fatigue", Icon: "fa-solid fa-battery-quarter"},
	{ID: "sore_throat", Label: "Sore Throat", Icon: "fa-solid fa-head-side-virus"},
	{ID: "headache", Label: "Headache", Icon: "fa-solid fa-head-side-mask"},
	{ID: "shortness_of_breath", Label: "Shortness of Breath", Icon: "fa-solid fa-lungs"},
	{ID: "muscle_ache", Label: "Muscle Ache", Icon: "fa-solid fa-person-praying"},
	{ID: "chills", Label: "Chills", Icon: "fa-solid fa-snowflake"},
	{ID: "nausea_vomiting", Label: "Nausea/Vomiting", Icon: "fa-solid fa-stomach"},
	{ID: "diarrhea", Label: "Diarrhea", Icon: "fa-solid fa-poop"},
	{ID: "loss_of_taste_smell", Label: "Loss of Taste/Smell", Icon: "fa-solid fa-utensils"},
	{ID: "chest_pain", Label: "Chest Pain", Icon: "fa-solid fa-heart-pulse"},
	{ID: "abdominal_pain", Label: "Abdominal Pain", Icon: "fa-solid fa-briefcase-medical"},
	{ID: "joint_pain", Label: "Joint Pain", Icon: "fa-solid fa-bone"},
	{ID: "rash", Label: "Rash", Icon: "fa-solid fa-disease"},
}

var index = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, s := range catalog {
		m[s.ID] = i
	}
	return m
}()

// All returns a copy of the catalog in display order.
func All() []Symptom {
	out := make([]Symptom, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id string) (Symptom, bool) {
	i, ok := index[id]
	if !ok {
		return Symptom{}, false
	}
	return catalog[i], true
}

func Known(id string) bool {
	_, ok := index[id]
	return ok
}

// Position returns the display position of id, or -1.
func Position(id string) int {
	if i, ok := index[id]; ok {
		return i
	}
	return -1
}
