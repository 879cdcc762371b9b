package requests

import "time"

// PatientProvisionedEvent is published once a provisioning run has completed
// its fatal steps.
type PatientProvisionedEvent struct {
	ExternalID string    `json:"external_id"`
	PatientID  string    `json:"patient_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PatientDecommissionedEvent is published after a teardown run, whatever its
// outcome counts were.
type PatientDecommissionedEvent struct {
	ExternalID string    `json:"external_id"`
	Deleted    int       `json:"deleted"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurred_at"`
}
