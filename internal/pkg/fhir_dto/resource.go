package fhir_dto

// ResourceEnvelope carries the fields shared by every resource the pipeline
// touches. Entry payloads are decoded into it when only identity matters.
type ResourceEnvelope struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id,omitempty"`
	Meta         *Meta        `json:"meta,omitempty"`
	Identifier   []Identifier `json:"identifier,omitempty"`
}
