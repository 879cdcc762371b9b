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

// provisionTimeout bounds one full pipeline run: six steps, each a handful of
// upstream calls.
const provisionTimeout = 2 * time.Minute

type ProvisioningController struct {
	Log                 *zap.Logger
	ProvisioningUsecase contracts.ProvisioningUsecase
}

var (
	provisioningControllerInstance *ProvisioningController
	onceProvisioningController     sync.Once
)

func NewProvisioningController(logger *zap.Logger, provisioningUsecase contracts.ProvisioningUsecase) *ProvisioningController {
	onceProvisioningController.Do(func() {
		instance := &ProvisioningController{
			Log:                 logger,
			ProvisioningUsecase: provisioningUsecase,
		}
		provisioningControllerInstance = instance
	})
	return provisioningControllerInstance
}

func (ctrl *ProvisioningController) ProvisionPatient(w http.ResponseWriter, r *http.Request) {
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

	ctrl.Log.Debug("Patient provisioning started",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingEndpointKey, r.URL.Path),
		zap.String(constvars.LoggingMethodKey, r.Method),
	)

	patientID := chi.URLParam(r, constvars.URLParamPatientID)
	if patientID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamMissing(nil, constvars.URLParamPatientID))
		return
	}

	// The body is optional; a bare POST provisions with defaults.
	request := new(requests.ProvisionPatient)
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

	if rawStep := r.URL.Query().Get(constvars.URLQueryParamStartStep); rawStep != "" {
		step, err := strconv.Atoi(rawStep)
		if err != nil {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrStartStepOutOfRange(err))
			return
		}
		request.StartStep = step
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

	ctx, cancel := context.WithTimeout(r.Context(), provisionTimeout)
	defer cancel()

	result, err := ctrl.ProvisioningUsecase.ProvisionPatient(ctx, request)
	if err != nil {
		ctrl.Log.Error("Failed to provision patient",
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

	utils.LogBusinessEvent(ctrl.Log, "patient_provisioned", requestID,
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.String(constvars.LoggingExternalIDKey, result.ExternalID),
		zap.Int(constvars.LoggingStepKey, result.StartStep),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)

	message := constvars.ProvisionSuccess
	if request.StartStepOrDefault() > constvars.StepMin {
		message = constvars.ProvisionResumeSuccess
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, message, result)
}
