package models

import "time"

// IdentifierMapping is one row of identifier_mappings, the durable link
// between a composite external id and a server-assigned store id.
type IdentifierMapping struct {
	ID           int64     `json:"id"`
	ResourceType string    `json:"resource_type"`
	ExternalID   string    `json:"external_id"`
	StoreID      string    `json:"store_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type RecordStatus string

const (
	RecordStatusActive  RecordStatus = "active"
	RecordStatusRemoved RecordStatus = "removed"
)

// PatientRecord is one row of patient_records, the relational metadata record
// registered right after the seed bundles land.
type PatientRecord struct {
	ID         int64        `json:"id"`
	PracticeID string       `json:"practice_id"`
	PatientID  string       `json:"patient_id"`
	ExternalID string       `json:"external_id"`
	Status     RecordStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
