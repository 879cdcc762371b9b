package records

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/queries"
	"context"
	"database/sql"
	"sync"

	"go.uber.org/zap"
)

type patientRecordPostgresRepository struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	patientRecordPostgresRepositoryInstance contracts.PatientRecordRepository
	oncePatientRecordPostgresRepository     sync.Once
)

func NewPatientRecordPostgresRepository(db *sql.DB, logger *zap.Logger) contracts.PatientRecordRepository {
	oncePatientRecordPostgresRepository.Do(func() {
		instance := &patientRecordPostgresRepository{
			DB:  db,
			Log: logger,
		}
		patientRecordPostgresRepositoryInstance = instance
	})
	return patientRecordPostgresRepositoryInstance
}

func (r *patientRecordPostgresRepository) UpsertRecord(ctx context.Context, record *models.PatientRecord) (*models.PatientRecord, error) {
	query := queries.UpsertPatientRecordQuery
	upserted := *record
	err := r.DB.QueryRowContext(ctx, query,
		record.PracticeID,
		record.PatientID,
		record.ExternalID,
		record.Status,
	).Scan(
		&upserted.ID,
		&upserted.CreatedAt,
		&upserted.UpdatedAt,
	)
	if err != nil {
		return nil, exceptions.ErrPostgresDBInsertData(err)
	}
	return &upserted, nil
}

func (r *patientRecordPostgresRepository) RecordExists(ctx context.Context, externalID string) (bool, error) {
	query := queries.CountPatientRecordByExternalIDQuery
	var count int
	err := r.DB.QueryRowContext(ctx, query, externalID, models.RecordStatusActive).Scan(&count)
	if err != nil {
		return false, exceptions.ErrPostgresDBFindData(err)
	}
	return count > 0, nil
}

func (r *patientRecordPostgresRepository) DeleteRecordByExternalID(ctx context.Context, externalID string) (int64, error) {
	query := queries.DeletePatientRecordByExternalIDQuery
	result, err := r.DB.ExecContext(ctx, query, externalID)
	if err != nil {
		return 0, exceptions.ErrPostgresDBDeleteData(err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, exceptions.ErrPostgresDBDeleteData(err)
	}
	return deleted, nil
}
