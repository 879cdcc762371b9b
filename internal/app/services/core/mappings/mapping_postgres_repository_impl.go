package mappings

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/queries"
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// uniqueViolation is the class 23 integrity-constraint code Postgres raises
// when the (resource_type, external_id) unique index rejects an insert.
const uniqueViolation = pq.ErrorCode("23505")

type identifierMappingPostgresRepository struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	identifierMappingPostgresRepositoryInstance contracts.IdentifierMappingRepository
	onceIdentifierMappingPostgresRepository     sync.Once
)

func NewIdentifierMappingPostgresRepository(db *sql.DB, logger *zap.Logger) contracts.IdentifierMappingRepository {
	onceIdentifierMappingPostgresRepository.Do(func() {
		instance := &identifierMappingPostgresRepository{
			DB:  db,
			Log: logger,
		}
		identifierMappingPostgresRepositoryInstance = instance
	})
	return identifierMappingPostgresRepositoryInstance
}

func (r *identifierMappingPostgresRepository) CreateMapping(ctx context.Context, mapping *models.IdentifierMapping) (*models.IdentifierMapping, error) {
	query := queries.CreateIdentifierMappingQuery
	inserted := *mapping
	err := r.DB.QueryRowContext(ctx, query,
		mapping.ResourceType,
		mapping.ExternalID,
		mapping.StoreID,
	).Scan(
		&inserted.ID,
		&inserted.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, exceptions.ErrDuplicateIdentifierMapping(err, mapping.ExternalID)
		}
		return nil, exceptions.ErrPostgresDBInsertData(err)
	}
	return &inserted, nil
}

func (r *identifierMappingPostgresRepository) MappingExists(ctx context.Context, resourceType, externalID string) (bool, error) {
	query := queries.CountIdentifierMappingQuery
	var count int
	err := r.DB.QueryRowContext(ctx, query, resourceType, externalID).Scan(&count)
	if err != nil {
		return false, exceptions.ErrPostgresDBFindData(err)
	}
	return count > 0, nil
}

func (r *identifierMappingPostgresRepository) DeleteMapping(ctx context.Context, resourceType, externalID string) (int64, error) {
	query := queries.DeleteIdentifierMappingQuery
	result, err := r.DB.ExecContext(ctx, query, resourceType, externalID)
	if err != nil {
		return 0, exceptions.ErrPostgresDBDeleteData(err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, exceptions.ErrPostgresDBDeleteData(err)
	}
	return deleted, nil
}
