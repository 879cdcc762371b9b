package queries

const (
	// Insert Queries
	CreateIdentifierMappingQuery = `
		INSERT INTO identifier_mappings (
			resource_type, external_id, store_id, created_at
		) VALUES (
			$1, $2, $3, NOW()
		) RETURNING id, created_at
	`

	// Select Queries
	CountIdentifierMappingQuery = `
		SELECT COUNT(1)
		FROM identifier_mappings
		WHERE resource_type = $1 AND external_id = $2
	`

	// Delete Queries
	DeleteIdentifierMappingQuery = `
		DELETE FROM identifier_mappings
		WHERE resource_type = $1 AND external_id = $2
	`
)
