package prediction

import (
	"fmt"
	"strings"
)

const promptTemplate = `
Analyze the following patient data and predict a possible disease.
Patient Data:
- Age: %d
- Gender: %s
- Symptoms: %s

Based on this information, provide a primary disease prediction, a confidence score, a clear explanation, identify the 2-3 key symptoms that influenced the decision, and list 2-3 other potential differential diagnoses with their confidence scores.

Additionally, for the primary predicted disease, provide:
1. A list of general precautions.
2. A list of common, non-prescription treatment suggestions or home care advice. Emphasize that this is not a substitute for professional medical advice.
`

// BuildPrompt interpolates the user input into the fixed prompt template.
func BuildPrompt(in UserInput) string {
	return fmt.Sprintf(promptTemplate, in.Age, in.Gender, strings.Join(in.SelectedSymptoms, ", "))
}
