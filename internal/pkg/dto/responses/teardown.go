package responses

import "chartseed-service/internal/app/models"

// TeardownResult wraps the removal summary for the response payload.
type TeardownResult struct {
	PatientID string                 `json:"patient_id"`
	Summary   models.TeardownSummary `json:"summary"`
}
