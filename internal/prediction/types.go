package prediction

// Gender values accepted by the form and the API.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

const (
	MinAge = 1
	MaxAge = 120
)

// UserInput is what the symptom form submits to /api/predict.
type UserInput struct {
	Age              int      `json:"age" binding:"required,min=1,max=120"`
	Gender           string   `json:"gender" binding:"required,oneof=male female other"`
	SelectedSymptoms []string `json:"selectedSymptoms" binding:"required,min=1,dive,required"`
}

type DifferentialDiagnosis struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the normalized model reply returned to the caller.
type Prediction struct {
	PredictedDisease      string                  `json:"predictedDisease"`
	ConfidenceScore       float64                 `json:"confidenceScore"`
	Explanation           string                  `json:"explanation"`
	ImportantSymptoms     []string                `json:"importantSymptoms"`
	DifferentialDiagnosis []DifferentialDiagnosis `json:"differentialDiagnosis"`
	Precautions           []string                `json:"precautions"`
	Treatment             []string                `json:"treatment"`
}

func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}
