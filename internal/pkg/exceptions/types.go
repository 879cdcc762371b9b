package exceptions

import (
	"chartseed-service/internal/pkg/constvars"
	"fmt"
)

var (
	ErrInputValidation = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadRequest, FormatFirstValidationError(err), constvars.ErrDevValidationFailed)
	}
	ErrURLParamMissing = func(err error, paramName string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevURLParamMissing, paramName))
	}
	ErrMissingRequestID = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, constvars.ErrDevMissingRequestID)
	}
	ErrStartStepOutOfRange = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, constvars.ErrDevStartStepOutOfRange)
	}
	ErrCannotParseJSON = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCannotParseJSON)
	}
	ErrCannotMarshalJSON = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevCannotMarshalJSON)
	}
	ErrServerDeadlineExceeded = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusGatewayTimeout, constvars.ErrClientServerLongRespond, constvars.ErrDevServerDeadlineExceeded)
	}
	ErrServerProcess = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientCannotProcessRequest, constvars.ErrDevServerProcess)
	}
	ErrTooManyRequests = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusTooManyRequests, constvars.ErrClientTooManyRequests, constvars.ErrDevRateLimitExceeded)
	}
	ErrClientCustomMessage = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadRequest, err.Error(), constvars.ErrDevServerProcess)
	}

	// Configuration
	ErrMissingConfiguration = func(err error, fieldName string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevMissingConfiguration, fieldName))
	}

	// Prerequisite checks
	ErrPrereqPatientMissing = func(err error, patientID string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusPreconditionFailed, constvars.ErrClientPatientNotFound, fmt.Sprintf("%s: %s", constvars.ErrDevPatientNotFoundInStore, patientID))
	}
	ErrPrereqRecordMissing = func(err error, patientID string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusPreconditionFailed, constvars.ErrClientCannotProcessRequest, fmt.Sprintf("%s: %s", constvars.ErrDevPatientRecordNotFound, patientID))
	}
	ErrPrereqMappingMissing = func(err error, patientID string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusPreconditionFailed, constvars.ErrClientCannotProcessRequest, fmt.Sprintf("%s: %s", constvars.ErrDevMappingRowNotFound, patientID))
	}

	// Postgres
	ErrPostgresDBFindData = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevDBFailedToFindData)
	}
	ErrPostgresDBDeleteData = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevDBFailedToDeleteData)
	}
	ErrPostgresDBIterateDataset = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevDBFailedToIterateDataset)
	}
	ErrPostgresDBUpdateData = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevDBFailedToUpdateData)
	}
	ErrPostgresDBInsertData = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevDBFailedToInsertData)
	}
	ErrDuplicateIdentifierMapping = func(err error, patientID string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusConflict, constvars.ErrClientMappingAlreadyExists, fmt.Sprintf("%s: %s", constvars.ErrDevDuplicateIdentifierMapping, patientID))
	}

	// Minio
	ErrMinioGetObject = func(err error, objectName string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevMinioFailedToGetObject, objectName))
	}
	ErrMinioListObjects = func(err error, prefix string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevMinioFailedToListObjects, prefix))
	}
	ErrMinioObjectNotFound = func(err error, objectName string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusNotFound, constvars.ErrClientBundleNotFound, fmt.Sprintf("%s: %s", constvars.ErrDevBundleSourceObjectNotFound, objectName))
	}
	ErrBundleMalformed = func(err error, objectName string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusUnprocessableEntity, constvars.ErrClientCannotProcessRequest, fmt.Sprintf("%s: %s", constvars.ErrDevBundleMalformed, objectName))
	}

	// RabbitMQ
	ErrRabbitMQPublishMessage = func(err error, queueName string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevRabbitMQFailedToPublish, queueName))
	}

	// HTTP
	ErrCreateHTTPRequest = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusInternalServerError, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCreateHTTPRequest)
	}
	ErrSendHTTPRequest = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientClinicalStoreUnreachable, constvars.ErrDevSendHTTPRequest)
	}
	ErrReadResponseBody = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevCannotReadResponseBody)
	}

	// Clinical-resource store
	ErrPostTransactionBundle = func(err error, bundleName string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevFhirPostTransactionBundle, bundleName))
	}
	ErrSearchFHIRResource = func(err error, resource string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevFhirSearchResource, resource))
	}
	ErrGetFHIRResource = func(err error, resource string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevFhirGetResource, resource))
	}
	ErrDecodeResponse = func(err error, resource string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevFhirDecodeResponse, resource))
	}
	ErrNoServerAssignedID = func(err error, resource string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientCannotProcessRequest, fmt.Sprintf("%s: %s", constvars.ErrDevNoIdentifierInResponse, resource))
	}
	ErrFhirResponseStatus = func(err error, status int, body string) *CustomError {
		return BuildNewCustomError(err, statusCodeFromUpstream(status), constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevFhirResponseStatus, status, body))
	}

	// Downstream record services
	ErrAggregatorCacheReload = func(err error) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevAggregatorCacheReload)
	}
	ErrTagPatientResources = func(err error, externalID string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevTagPatientResources, externalID))
	}
	ErrIndexPatientRecord = func(err error, externalID string) *CustomError {
		return BuildNewCustomError(err, constvars.StatusBadGateway, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevIndexPatientRecord, externalID))
	}
)

// statusCodeFromUpstream maps the handful of upstream statuses the pipeline
// reacts to onto the wrapped error, and folds everything else into 502.
func statusCodeFromUpstream(status int) int {
	switch status {
	case constvars.StatusNotFound, constvars.StatusGone, constvars.StatusConflict:
		return status
	default:
		return constvars.StatusBadGateway
	}
}
