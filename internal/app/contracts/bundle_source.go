package contracts

import (
	"chartseed-service/internal/app/models"
	"context"
)

// BundleSource serves the seed transaction bundles: a shared set uploaded
// once per environment and per-patient sets keyed by patient id.
type BundleSource interface {
	SharedBundles(ctx context.Context) ([]models.ResourceBundle, error)
	PatientBundles(ctx context.Context, patientID string) ([]models.ResourceBundle, error)
}
