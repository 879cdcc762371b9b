package contracts

import (
	"chartseed-service/internal/app/models"
	"context"
)

// IdentifierMappingRepository persists the cross-store mapping rows.
// CreateMapping must reject a duplicate (resource_type, external_id) pair
// rather than overwrite it.
type IdentifierMappingRepository interface {
	CreateMapping(ctx context.Context, mapping *models.IdentifierMapping) (*models.IdentifierMapping, error)
	MappingExists(ctx context.Context, resourceType, externalID string) (bool, error)
	DeleteMapping(ctx context.Context, resourceType, externalID string) (int64, error)
}

// PatientRecordRepository persists the relational metadata record registered
// in the pipeline's second step. Upserts are idempotent on external_id.
type PatientRecordRepository interface {
	UpsertRecord(ctx context.Context, record *models.PatientRecord) (*models.PatientRecord, error)
	RecordExists(ctx context.Context, externalID string) (bool, error)
	DeleteRecordByExternalID(ctx context.Context, externalID string) (int64, error)
}
