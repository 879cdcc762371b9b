package contracts

import (
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/fhir_dto"
	"context"
)

// BundleFhirClient posts whole transaction bundles against the store base
// URL.
type BundleFhirClient interface {
	PostTransactionBundle(ctx context.Context, bundle *fhir_dto.FHIRBundle) (*fhir_dto.FHIRBundle, error)
}

// ResourceFhirClient covers the per-resource operations the remover and the
// prerequisite checks need.
type ResourceFhirClient interface {
	FindByIdentifier(ctx context.Context, resourceType, system, value string) ([]fhir_dto.ResourceEnvelope, error)
	SearchByPatient(ctx context.Context, resourceType, patientID string) ([]fhir_dto.ResourceEnvelope, error)
	DeleteResource(ctx context.Context, resourceType, id string) error
	ExpungeResource(ctx context.Context, resourceType, id string) error
}

// PatientFhirClient resolves patients and walks their full record
// compartment.
type PatientFhirClient interface {
	FindPatientByIdentifier(ctx context.Context, system, value string) ([]fhir_dto.Patient, error)
	Everything(ctx context.Context, patientID string) ([]models.ResourceIdentity, error)
}
