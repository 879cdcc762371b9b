package models

import (
	"chartseed-service/internal/pkg/constvars"
	"time"
)

// PipelineRun is the transient state of one provisioning invocation. Nothing
// in it survives the run except the single mapping row and the patient
// metadata record written by their steps.
type PipelineRun struct {
	PracticeID string      `json:"practice_id"`
	PatientID  string      `json:"patient_id"`
	ExternalID string      `json:"external_id"`
	StartStep  int         `json:"start_step"`
	RemoteIDs  RemoteIDSet `json:"remote_ids"`
	StartedAt  time.Time   `json:"started_at"`
}

// StepResult reports one pipeline stage for the response payload.
type StepResult struct {
	Step     int    `json:"step"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Uploaded int    `json:"uploaded,omitempty"`
}

const (
	StepStatusDone    = "done"
	StepStatusSkipped = "skipped"
	StepStatusWarning = "warning"
)

// StepName returns the operator-facing name of a pipeline step.
func StepName(step int) string {
	switch step {
	case constvars.StepUploadBundles:
		return "upload bundles"
	case constvars.StepRegisterRecord:
		return "register patient record"
	case constvars.StepBuildMapping:
		return "insert identifier mapping"
	case constvars.StepReloadCache:
		return "reload aggregator cache"
	case constvars.StepTagResources:
		return "tag patient resources"
	case constvars.StepIndexRecord:
		return "index patient record"
	default:
		return "unknown step"
	}
}
