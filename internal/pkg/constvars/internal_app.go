package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
	CONTEXT_API_KEY_AUTH             ContextKey = "api_key_auth"
)

const (
	REQUEST_ID_PREFIX = "CHRTSD_SVC_"
)

const (
	StepUploadBundles  = 1
	StepRegisterRecord = 2
	StepBuildMapping   = 3
	StepReloadCache    = 4
	StepTagResources   = 5
	StepIndexRecord    = 6

	StepMin = StepUploadBundles
	StepMax = StepIndexRecord
)

const (
	ScopePatient = "patient"
	ScopeShared  = "shared"
)

const (
	ExternalIDSeparator = "."
)
