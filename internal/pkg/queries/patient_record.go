package queries

const (
	// Insert Queries
	UpsertPatientRecordQuery = `
		INSERT INTO patient_records (
			practice_id, patient_id, external_id, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NOW(), NOW()
		)
		ON CONFLICT (external_id) DO UPDATE
		SET practice_id = EXCLUDED.practice_id,
			patient_id = EXCLUDED.patient_id,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	// Select Queries
	CountPatientRecordByExternalIDQuery = `
		SELECT COUNT(1)
		FROM patient_records
		WHERE external_id = $1 AND status = $2
	`

	// Delete Queries
	DeletePatientRecordByExternalIDQuery = `
		DELETE FROM patient_records
		WHERE external_id = $1
	`
)
