package contracts

import "context"

// AggregatorClient pokes the application-tier cache that serves identifier
// mappings. Reload failures are reported, never fatal.
type AggregatorClient interface {
	ReloadMappingCache(ctx context.Context) error
}

// SearchClient owns the two externally-implemented pipeline steps: tagging
// the stored resources and indexing the record, both keyed by external id.
type SearchClient interface {
	TagPatientResources(ctx context.Context, externalID string) error
	IndexPatientRecord(ctx context.Context, externalID string) error
}
