package controllers

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/dto/requests"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/utils"
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// teardownTimeout bounds one removal run. Deletes are throttled, so a large
// closure legitimately takes a while.
const teardownTimeout = 5 * time.Minute

type TeardownController struct {
	Log             *zap.Logger
	TeardownUsecase contracts.TeardownUsecase
}

var (
	teardownControllerInstance *TeardownController
	onceTeardownController     sync.Once
)

func NewTeardownController(logger *zap.Logger, teardownUsecase contracts.TeardownUsecase) *TeardownController {
	onceTeardownController.Do(func() {
		instance := &TeardownController{
			Log:             logger,
			TeardownUsecase: teardownUsecase,
		}
		teardownControllerInstance = instance
	})
	return teardownControllerInstance
}

func (ctrl *TeardownController) RemovePatient(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("Request ID missing from context",
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
			zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	ctrl.Log.Debug("Patient removal started",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingEndpointKey, r.URL.Path),
		zap.String(constvars.LoggingMethodKey, r.Method),
	)

	patientID := chi.URLParam(r, constvars.URLParamPatientID)
	if patientID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamMissing(nil, constvars.URLParamPatientID))
		return
	}

	// DELETE bodies are optional; include_shared can also arrive as a query
	// parameter, which wins over the body.
	request := new(requests.RemovePatient)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && err != io.EOF {
		ctrl.Log.Error("Failed to parse request body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "JSON parsing"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	request.PatientID = patientID

	if rawShared := r.URL.Query().Get(constvars.URLQueryParamIncludeShared); rawShared != "" {
		includeShared, err := strconv.ParseBool(rawShared)
		if err != nil {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
			return
		}
		request.IncludeShared = includeShared
	}

	if err := utils.ValidateStruct(request); err != nil {
		ctrl.Log.Error("Request body validation failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "validation"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), teardownTimeout)
	defer cancel()

	result, err := ctrl.TeardownUsecase.RemovePatient(ctx, request)
	if err != nil {
		ctrl.Log.Error("Failed to remove patient",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPatientIDKey, patientID),
			zap.String(constvars.LoggingErrorTypeKey, "usecase error"),
			zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
			zap.Error(err),
		)
		if err == context.DeadlineExceeded {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "patient_decommissioned", requestID,
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.String(constvars.LoggingExternalIDKey, result.Summary.ExternalID),
		zap.Int("found", result.Summary.Found),
		zap.Int("deleted", result.Summary.Deleted),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)

	message := constvars.TeardownSuccess
	switch {
	case result.Summary.Found == 0:
		message = constvars.TeardownNothingToDo
	case !result.Summary.Clean():
		message = constvars.TeardownPartialSuccess
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, message, result)
}
