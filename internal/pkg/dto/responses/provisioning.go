package responses

import "chartseed-service/internal/app/models"

// ProvisionResult reports one completed provisioning run step by step.
type ProvisionResult struct {
	PatientID  string              `json:"patient_id"`
	ExternalID string              `json:"external_id"`
	StartStep  int                 `json:"start_step"`
	Steps      []models.StepResult `json:"steps"`
	Caveat     string              `json:"caveat,omitempty"`
}
