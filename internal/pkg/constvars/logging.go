package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingDataKey           = "data"
	LoggingQueryParamsKey    = "query_params"
	LoggingResponseKey       = "response"
	LoggingRequestKey        = "request"
	LoggingResponseLengthKey = "response_length"
	LoggingResourceTypeKey   = "resource_type"
	LoggingResourceIDKey     = "resource_id"
	LoggingPatientIDKey      = "patient_id"
	LoggingExternalIDKey     = "external_id"
	LoggingBundleKey         = "bundle"
	LoggingStepKey           = "step"
	LoggingTierKey           = "tier"
	LoggingCountKey          = "count"
	LoggingOperationKey      = "operation"
	LoggingDurationKey       = "duration"
	LoggingSuccessKey        = "success"
	LoggingQueueNameKey      = "queue_name"
	LoggingBucketNameKey     = "bucket_name"
	LoggingObjectNameKey     = "object_name"
	LoggingMethodKey         = "method"
	LoggingEndpointKey       = "endpoint"
	LoggingRemoteAddrKey     = "remote_addr"
	LoggingUserAgentKey      = "user_agent"
	LoggingQueryKey          = "query"
	LoggingStatusCodeKey     = "status_code"
	LoggingErrorTypeKey      = "error_type"
)
