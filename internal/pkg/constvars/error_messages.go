package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"oneof":    "must be one of [%s]",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lt":       "must be less than %s",
	"lte":      "must be less than or equal to %s",
	"url":      "must be a valid URL",
	"uuid":     "must be a valid UUID",
	"alphanum": "must contain only alphanumeric characters",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"oneof": true,
	"gt":    true,
	"gte":   true,
	"lt":    true,
	"lte":   true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientPatientNotFound               = "patient not found"
	ErrClientMappingAlreadyExists          = "an identifier mapping for this patient already exists; remove the patient before provisioning it again"
	ErrClientBundleNotFound                = "no seed bundles found for this patient"
	ErrClientClinicalStoreUnreachable      = "clinical-resource store cannot be reached"
	ErrClientTooManyRequests               = "too many requests, please slow down"
)

// Error messages for developers
const (
	ErrDevInvalidInput        = "invalid input"
	ErrDevValidationFailed    = "request body validation failed"
	ErrDevMissingRequestID    = "missing request id in request context"
	ErrDevURLParamMissing     = "missing required url parameter %s"
	ErrDevStartStepOutOfRange = "start step must be between 1 and 6"
	ErrDevCannotParseJSON     = "cannot parse JSON into struct or other data types"
	ErrDevCannotMarshalJSON   = "cannot convert struct or other data types to JSON"

	ErrDevServerProcess          = "server cannot process the request"
	ErrDevServerDeadlineExceeded = "server deadline exceeded while processing the request"
	ErrDevMissingConfiguration   = "missing or invalid configuration value %s"
	ErrDevRateLimitExceeded      = "request rate exceeded for this client"

	ErrDevCreateHTTPRequest      = "cannot build outbound http request"
	ErrDevSendHTTPRequest        = "cannot reach upstream service"
	ErrDevCannotReadResponseBody = "cannot read response body"

	ErrDevDBFailedToFindData       = "database failed to find data"
	ErrDevDBFailedToDeleteData     = "database failed to delete data"
	ErrDevDBFailedToIterateDataset = "database failed to iterate dataset"
	ErrDevDBFailedToUpdateData     = "database failed to update data"
	ErrDevDBFailedToInsertData     = "database failed to insert data"

	ErrDevMinioFailedToGetObject   = "minio failed to get object %s"
	ErrDevMinioFailedToListObjects = "minio failed to list objects under prefix %s"
	ErrDevRabbitMQFailedToPublish  = "rabbitmq failed to publish message to queue %s"

	ErrDevFhirPostTransactionBundle = "clinical-resource store rejected transaction bundle %s"
	ErrDevFhirSearchResource        = "clinical-resource store failed to search %s"
	ErrDevFhirGetResource           = "clinical-resource store failed to get %s"
	ErrDevFhirDecodeResponse        = "cannot decode clinical-resource store response for %s"
	ErrDevFhirResponseStatus        = "clinical-resource store replied %d: %s"

	ErrDevAggregatorCacheReload = "aggregator failed to reload identifier mapping cache"
	ErrDevTagPatientResources   = "search service failed to tag resources for %s"
	ErrDevIndexPatientRecord    = "search service failed to index record %s"

	ErrDevNoIdentifierInResponse     = "transaction response entry carries no usable resource id"
	ErrDevUnknownResourceTier        = "resource type has no deletion tier assignment"
	ErrDevMappingRowNotFound         = "identifier mapping row not found"
	ErrDevPatientRecordNotFound      = "patient metadata record not found"
	ErrDevPatientNotFoundInStore     = "Patient not found in clinical-resource store"
	ErrDevDuplicateIdentifierMapping = "identifier mapping already present for patient"
	ErrDevBundleSourceObjectNotFound = "bundle object not found in seed bucket"
	ErrDevBundleMalformed            = "bundle object is not a well-formed transaction bundle"
)
