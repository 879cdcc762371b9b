package contracts

import "context"

// EventPublisher announces lifecycle transitions to interested consumers.
// Publishing is best-effort; a broker outage never fails a run.
type EventPublisher interface {
	PatientProvisioned(ctx context.Context, externalID, patientID string) error
	PatientDecommissioned(ctx context.Context, externalID string, deleted, failed int) error
}
