package routers

import (
	"bytes"
	"chartseed-service/internal/app/config"
	"chartseed-service/internal/app/delivery/http/controllers"
	"chartseed-service/internal/app/delivery/http/middlewares"
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/dto/requests"
	"chartseed-service/internal/pkg/dto/responses"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockProvisioningUsecase struct {
	mock.Mock
}

func (m *MockProvisioningUsecase) ProvisionPatient(ctx context.Context, request *requests.ProvisionPatient) (*responses.ProvisionResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*responses.ProvisionResult), args.Error(1)
}

type MockTeardownUsecase struct {
	mock.Mock
}

func (m *MockTeardownUsecase) RemovePatient(ctx context.Context, request *requests.RemovePatient) (*responses.TeardownResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*responses.TeardownResult), args.Error(1)
}

const testAPIKey = "test-superadmin-api-key-12345"

func newTestRouter(provisioningUsecase *MockProvisioningUsecase, teardownUsecase *MockTeardownUsecase) *chi.Mux {
	logger := zap.NewNop()
	internalConfig := &config.InternalConfig{
		App: config.App{
			SuperadminAPIKey:          testAPIKey,
			MaxRequests:               100,
			SuperadminAPIKeyRateLimit: 100,
			MaxTimeRequestsPerSeconds: 100,
		},
	}

	middlewareInstance := &middlewares.Middlewares{
		Log:            logger,
		InternalConfig: internalConfig,
	}

	provisioningController := &controllers.ProvisioningController{
		Log:                 logger,
		ProvisioningUsecase: provisioningUsecase,
	}
	teardownController := &controllers.TeardownController{
		Log:             logger,
		TeardownUsecase: teardownUsecase,
	}

	router := chi.NewRouter()
	router.Use(middlewareInstance.RequestIDMiddleware)
	router.Route("/patients", func(r chi.Router) {
		attachProvisioningRoutes(r, middlewareInstance, provisioningController)
		attachTeardownRoutes(r, middlewareInstance, teardownController)
	})
	return router
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) responses.ResponseDTO {
	t.Helper()
	var envelope responses.ResponseDTO
	err := json.Unmarshal(rr.Body.Bytes(), &envelope)
	assert.NoError(t, err, "response body should be a valid envelope")
	return envelope
}

func TestProvisioningRouter(t *testing.T) {
	t.Run("Provision Without Body", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		provisioningUsecase.On("ProvisionPatient", mock.Anything, mock.MatchedBy(func(request *requests.ProvisionPatient) bool {
			return request.PatientID == "t8080" && request.StartStep == 0
		})).Return(&responses.ProvisionResult{PatientID: "t8080", ExternalID: "a-16349.E-t8080", StartStep: 1}, nil)

		req := httptest.NewRequest("POST", "/patients/t8080/provision", nil)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "should return 200 OK for a bare provision call")
		envelope := decodeEnvelope(t, rr)
		assert.True(t, envelope.Success)
		assert.Equal(t, constvars.ProvisionSuccess, envelope.Message)
		provisioningUsecase.AssertExpectations(t)
	})

	t.Run("Resume Reports The Resume Message", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		provisioningUsecase.On("ProvisionPatient", mock.Anything, mock.MatchedBy(func(request *requests.ProvisionPatient) bool {
			return request.PatientID == "t8080" && request.StartStep == 4
		})).Return(&responses.ProvisionResult{PatientID: "t8080", ExternalID: "a-16349.E-t8080", StartStep: 4}, nil)

		body, _ := json.Marshal(requests.ProvisionPatient{StartStep: 4})
		req := httptest.NewRequest("POST", "/patients/t8080/provision", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		envelope := decodeEnvelope(t, rr)
		assert.Equal(t, constvars.ProvisionResumeSuccess, envelope.Message)
		provisioningUsecase.AssertExpectations(t)
	})

	t.Run("Start Step Query Parameter Wins Over Body", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		provisioningUsecase.On("ProvisionPatient", mock.Anything, mock.MatchedBy(func(request *requests.ProvisionPatient) bool {
			return request.StartStep == 3
		})).Return(&responses.ProvisionResult{PatientID: "t8080", StartStep: 3}, nil)

		body, _ := json.Marshal(requests.ProvisionPatient{StartStep: 2})
		req := httptest.NewRequest("POST", "/patients/t8080/provision?start_step=3", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		provisioningUsecase.AssertExpectations(t)
	})

	t.Run("Non Numeric Start Step Is Rejected", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		req := httptest.NewRequest("POST", "/patients/t8080/provision?start_step=abc", nil)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "should return 400 Bad Request for a non-numeric start step")
		provisioningUsecase.AssertNotCalled(t, "ProvisionPatient")
	})

	t.Run("Malformed Body Is Rejected", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		req := httptest.NewRequest("POST", "/patients/t8080/provision", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "should return 400 Bad Request for a malformed body")
		provisioningUsecase.AssertNotCalled(t, "ProvisionPatient")
	})
}

func TestTeardownRouter(t *testing.T) {
	emptySummary := func(externalID string, found int) *responses.TeardownResult {
		return &responses.TeardownResult{
			PatientID: "t8080",
			Summary:   models.TeardownSummary{ExternalID: externalID, Found: found, Deleted: found},
		}
	}

	t.Run("Remove With Valid API Key", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		teardownUsecase.On("RemovePatient", mock.Anything, mock.MatchedBy(func(request *requests.RemovePatient) bool {
			return request.PatientID == "t8080" && !request.IncludeShared
		})).Return(emptySummary("a-16349.E-t8080", 4), nil)

		req := httptest.NewRequest("DELETE", "/patients/t8080", nil)
		req.Header.Set(constvars.HeaderApiKey, testAPIKey)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "should return 200 OK for valid API key")
		envelope := decodeEnvelope(t, rr)
		assert.Equal(t, constvars.TeardownSuccess, envelope.Message)
		teardownUsecase.AssertExpectations(t)
	})

	t.Run("Remove Without API Key", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		req := httptest.NewRequest("DELETE", "/patients/t8080", nil)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "should return 401 Unauthorized for missing API key")
		teardownUsecase.AssertNotCalled(t, "RemovePatient")
	})

	t.Run("Remove With Invalid API Key", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		req := httptest.NewRequest("DELETE", "/patients/t8080", nil)
		req.Header.Set(constvars.HeaderApiKey, "invalid-api-key")

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "should return 401 Unauthorized for invalid API key")
		teardownUsecase.AssertNotCalled(t, "RemovePatient")
	})

	t.Run("Include Shared Query Parameter", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		teardownUsecase.On("RemovePatient", mock.Anything, mock.MatchedBy(func(request *requests.RemovePatient) bool {
			return request.IncludeShared
		})).Return(emptySummary("a-16349.E-t8080", 7), nil)

		req := httptest.NewRequest("DELETE", "/patients/t8080?include_shared=true", nil)
		req.Header.Set(constvars.HeaderApiKey, testAPIKey)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		teardownUsecase.AssertExpectations(t)
	})

	t.Run("Nothing To Remove Message", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		teardownUsecase.On("RemovePatient", mock.Anything, mock.Anything).Return(emptySummary("a-16349.E-t8080", 0), nil)

		req := httptest.NewRequest("DELETE", "/patients/t8080", nil)
		req.Header.Set(constvars.HeaderApiKey, testAPIKey)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		envelope := decodeEnvelope(t, rr)
		assert.Equal(t, constvars.TeardownNothingToDo, envelope.Message)
	})

	t.Run("Leftovers Report Partial Success", func(t *testing.T) {
		provisioningUsecase := new(MockProvisioningUsecase)
		teardownUsecase := new(MockTeardownUsecase)
		router := newTestRouter(provisioningUsecase, teardownUsecase)

		result := &responses.TeardownResult{
			PatientID: "t8080",
			Summary:   models.TeardownSummary{ExternalID: "a-16349.E-t8080", Found: 5, Deleted: 4, Blocked: 1},
		}
		teardownUsecase.On("RemovePatient", mock.Anything, mock.Anything).Return(result, nil)

		req := httptest.NewRequest("DELETE", "/patients/t8080", nil)
		req.Header.Set(constvars.HeaderApiKey, testAPIKey)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		envelope := decodeEnvelope(t, rr)
		assert.Equal(t, constvars.TeardownPartialSuccess, envelope.Message)
	})
}

func TestSetupRoutes_FullPath(t *testing.T) {
	logger := zap.NewNop()
	internalConfig := &config.InternalConfig{
		App: config.App{
			EndpointPrefix:            "api",
			Version:                   "v1",
			SuperadminAPIKey:          testAPIKey,
			MaxRequests:               100,
			SuperadminAPIKeyRateLimit: 100,
			MaxTimeRequestsPerSeconds: 100,
		},
	}

	middlewareInstance := &middlewares.Middlewares{
		Log:            logger,
		InternalConfig: internalConfig,
	}

	provisioningUsecase := new(MockProvisioningUsecase)
	teardownUsecase := new(MockTeardownUsecase)

	provisioningController := &controllers.ProvisioningController{
		Log:                 logger,
		ProvisioningUsecase: provisioningUsecase,
	}
	teardownController := &controllers.TeardownController{
		Log:             logger,
		TeardownUsecase: teardownUsecase,
	}

	router := chi.NewRouter()
	SetupRoutes(router, internalConfig, logger, middlewareInstance, provisioningController, teardownController)

	t.Run("Provision Under Versioned Prefix", func(t *testing.T) {
		provisioningUsecase.On("ProvisionPatient", mock.Anything, mock.Anything).Return(&responses.ProvisionResult{PatientID: "t8080", StartStep: 1}, nil)

		req := httptest.NewRequest("POST", "/api/v1/patients/t8080/provision", nil)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "route should be reachable under the endpoint and version prefixes")
		assert.NotEmpty(t, rr.Header().Get(constvars.HeaderRequestID), "request id header should be set")
	})

	t.Run("Unknown Route Under Prefix", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/patients", nil)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
