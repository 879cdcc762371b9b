package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Provisioning messages
	ProvisionSuccess       = "test record provisioned successfully"
	ProvisionResumeSuccess = "test record provisioning resumed successfully"

	// Teardown messages
	TeardownSuccess        = "test record removed successfully"
	TeardownNothingToDo    = "no resources found, nothing to remove"
	TeardownPartialSuccess = "test record removed with leftover resources"
)
