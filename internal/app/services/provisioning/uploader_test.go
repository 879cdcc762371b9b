package provisioning

import (
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/fhir_dto"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockBundleFhirClient struct {
	mock.Mock
}

func (m *MockBundleFhirClient) PostTransactionBundle(ctx context.Context, bundle *fhir_dto.FHIRBundle) (*fhir_dto.FHIRBundle, error) {
	args := m.Called(ctx, bundle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fhir_dto.FHIRBundle), args.Error(1)
}

func newTestUploader(client *MockBundleFhirClient) *resourceGraphUploader {
	return &resourceGraphUploader{
		BundleClient:            client,
		IdentifierSystem:        "https://example.org/ids",
		PatientIdentifierSystem: "https://example.org/patient-ids",
		Log:                     zap.NewNop(),
	}
}

func seedEntry(resourceType, localRef, raw string) models.BundleEntry {
	return models.BundleEntry{
		Record: models.ResourceRecord{Type: resourceType, LocalRef: localRef},
		Raw:    []byte(raw),
	}
}

func TestParseLocation(t *testing.T) {
	t.Run("History Form", func(t *testing.T) {
		resourceType, id, ok := parseLocation("Patient/p123/_history/1")

		assert.True(t, ok)
		assert.Equal(t, "Patient", resourceType)
		assert.Equal(t, "p123", id)
	})

	t.Run("Plain Form", func(t *testing.T) {
		resourceType, id, ok := parseLocation("Observation/obs-1")

		assert.True(t, ok)
		assert.Equal(t, "Observation", resourceType)
		assert.Equal(t, "obs-1", id)
	})

	t.Run("Absolute URL", func(t *testing.T) {
		resourceType, id, ok := parseLocation("http://fhir-internal:8080/fhir/R4/Patient/p9/_history/3")

		assert.True(t, ok)
		assert.Equal(t, "Patient", resourceType)
		assert.Equal(t, "p9", id)
	})

	t.Run("Base URL Without Resource", func(t *testing.T) {
		_, _, ok := parseLocation("http://fhir-internal:8080/fhir/R4")

		assert.False(t, ok)
	})

	t.Run("Single Segment", func(t *testing.T) {
		_, _, ok := parseLocation("p123")

		assert.False(t, ok)
	})

	t.Run("Empty Id Segment", func(t *testing.T) {
		_, _, ok := parseLocation("Patient//_history/1")

		assert.False(t, ok)
	})

	t.Run("Empty", func(t *testing.T) {
		_, _, ok := parseLocation("")

		assert.False(t, ok)
	})
}

func TestExtractServerIDs(t *testing.T) {
	requested := []models.BundleEntry{
		seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":"Patient"}`),
	}

	t.Run("Location Preferred Over Echoed Resource", func(t *testing.T) {
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			Type:         "transaction-response",
			Entry: []fhir_dto.Entry{
				{
					Resource: []byte(`{"resourceType":"Patient","id":"echoed-1"}`),
					Response: &fhir_dto.BundleResponse{Status: "201 Created", Location: "Patient/srv-1/_history/1"},
				},
			},
		}

		extracted, err := extractServerIDs(response, requested)

		assert.NoError(t, err)
		assert.Len(t, extracted, 1)
		assert.Equal(t, models.ExtractedID{Type: "Patient", ID: "srv-1", Source: models.IDSourceLocation}, extracted[0])
	})

	t.Run("Echoed Resource Fallback", func(t *testing.T) {
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			Type:         "transaction-response",
			Entry: []fhir_dto.Entry{
				{
					Resource: []byte(`{"resourceType":"Patient","id":"echoed-1"}`),
					Response: &fhir_dto.BundleResponse{Status: "201 Created"},
				},
			},
		}

		extracted, err := extractServerIDs(response, requested)

		assert.NoError(t, err)
		assert.Equal(t, models.ExtractedID{Type: "Patient", ID: "echoed-1", Source: models.IDSourceResource}, extracted[0])
	})

	t.Run("Malformed Location Falls Through To Resource", func(t *testing.T) {
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			Type:         "transaction-response",
			Entry: []fhir_dto.Entry{
				{
					Resource: []byte(`{"resourceType":"Patient","id":"echoed-2"}`),
					Response: &fhir_dto.BundleResponse{Status: "201 Created", Location: "Patient//_history/1"},
				},
			},
		}

		extracted, err := extractServerIDs(response, requested)

		assert.NoError(t, err)
		assert.Equal(t, models.ExtractedID{Type: "Patient", ID: "echoed-2", Source: models.IDSourceResource}, extracted[0])
	})

	t.Run("Bundle ID Fallback Uses Request Type", func(t *testing.T) {
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			ID:           "txn-77",
			Type:         "transaction-response",
			Entry:        []fhir_dto.Entry{{Response: &fhir_dto.BundleResponse{Status: "201 Created"}}},
		}

		extracted, err := extractServerIDs(response, requested)

		assert.NoError(t, err)
		assert.Equal(t, models.ExtractedID{Type: "Patient", ID: "txn-77", Source: models.IDSourceBundle}, extracted[0])
	})

	t.Run("Nothing Usable", func(t *testing.T) {
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			Type:         "transaction-response",
			Entry:        []fhir_dto.Entry{{Response: &fhir_dto.BundleResponse{Status: "201 Created"}}},
		}

		_, err := extractServerIDs(response, requested)

		assert.Error(t, err)
		var customErr *exceptions.CustomError
		assert.ErrorAs(t, err, &customErr)
		assert.Equal(t, 502, customErr.StatusCode)
		assert.Contains(t, customErr.DevMessage, "entry 0")
	})

	t.Run("Response Shorter Than Request", func(t *testing.T) {
		twoRequests := []models.BundleEntry{
			seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":"Patient"}`),
			seedEntry("Observation", "urn:uuid:obs-1", `{"resourceType":"Observation"}`),
		}
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			Type:         "transaction-response",
			Entry: []fhir_dto.Entry{
				{Response: &fhir_dto.BundleResponse{Status: "201 Created", Location: "Patient/srv-1/_history/1"}},
			},
		}

		_, err := extractServerIDs(response, twoRequests)

		assert.Error(t, err)
		var customErr *exceptions.CustomError
		assert.ErrorAs(t, err, &customErr)
		assert.Contains(t, customErr.DevMessage, "1 entries for 2 requests")
	})
}

func TestOrderBundles(t *testing.T) {
	t.Run("Shared Before Patient", func(t *testing.T) {
		patient := models.ResourceBundle{Name: "patient.json", Scope: models.BundleScopePatient}
		shared := models.ResourceBundle{Name: "shared.json", Scope: models.BundleScopeShared}

		ordered := orderBundles([]models.ResourceBundle{patient, shared})

		assert.Equal(t, "shared.json", ordered[0].Name)
		assert.Equal(t, "patient.json", ordered[1].Name)
	})

	t.Run("Foundational Types First", func(t *testing.T) {
		observations := models.ResourceBundle{
			Name:    "observations.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Observation", "urn:uuid:obs-1", `{}`)},
		}
		patient := models.ResourceBundle{
			Name:    "patient.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Patient", "urn:uuid:pat-1", `{}`)},
		}

		ordered := orderBundles([]models.ResourceBundle{observations, patient})

		assert.Equal(t, "patient.json", ordered[0].Name)
		assert.Equal(t, "observations.json", ordered[1].Name)
	})

	t.Run("Stable For Equal Keys", func(t *testing.T) {
		first := models.ResourceBundle{
			Name:    "01-conditions.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Condition", "urn:uuid:c-1", `{}`)},
		}
		second := models.ResourceBundle{
			Name:    "02-observations.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Observation", "urn:uuid:o-1", `{}`)},
		}

		ordered := orderBundles([]models.ResourceBundle{first, second})

		assert.Equal(t, "01-conditions.json", ordered[0].Name)
		assert.Equal(t, "02-observations.json", ordered[1].Name)
	})
}

func TestBuildTransaction(t *testing.T) {
	t.Run("Defaults To Type Level Post", func(t *testing.T) {
		bundle := models.ResourceBundle{
			Name:    "patient.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":"Patient"}`)},
		}

		transaction := buildTransaction(&bundle)

		assert.Equal(t, "Bundle", transaction.ResourceType)
		assert.Equal(t, "transaction", transaction.Type)
		assert.Len(t, transaction.Entry, 1)
		assert.Equal(t, "urn:uuid:pat-1", transaction.Entry[0].FullURL)
		assert.Equal(t, "POST", transaction.Entry[0].Request.Method)
		assert.Equal(t, "Patient", transaction.Entry[0].Request.URL)
	})

	t.Run("Preserves Seed Request Line", func(t *testing.T) {
		entry := seedEntry("Organization", "urn:uuid:org-1", `{"resourceType":"Organization"}`)
		entry.Method = "PUT"
		entry.RequestURL = "Organization/org-1"
		entry.IfNoneExist = "name=Clinic"
		bundle := models.ResourceBundle{Name: "orgs.json", Scope: models.BundleScopeShared, Entries: []models.BundleEntry{entry}}

		transaction := buildTransaction(&bundle)

		assert.Equal(t, "PUT", transaction.Entry[0].Request.Method)
		assert.Equal(t, "Organization/org-1", transaction.Entry[0].Request.URL)
		assert.Equal(t, "name=Clinic", transaction.Entry[0].Request.IfNoneExist)
	})
}

func TestEnsurePatientIdentifiers(t *testing.T) {
	uploader := newTestUploader(&MockBundleFhirClient{})

	t.Run("Injects Missing Systems", func(t *testing.T) {
		bundle := models.ResourceBundle{
			Name:    "patient.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":"Patient","name":[{"family":"Tester"}]}`)},
		}

		err := uploader.ensurePatientIdentifiers(&bundle, "a-16349.E-t8080", "t8080")

		assert.NoError(t, err)
		var resource struct {
			Identifier []struct {
				System string `json:"system"`
				Value  string `json:"value"`
			} `json:"identifier"`
		}
		assert.NoError(t, json.Unmarshal(bundle.Entries[0].Raw, &resource))
		assert.Len(t, resource.Identifier, 2)
		assert.Equal(t, "https://example.org/ids", resource.Identifier[0].System)
		assert.Equal(t, "a-16349.E-t8080", resource.Identifier[0].Value)
		assert.Equal(t, "https://example.org/patient-ids", resource.Identifier[1].System)
		assert.Equal(t, "t8080", resource.Identifier[1].Value)
	})

	t.Run("Leaves Carrying Entries Untouched", func(t *testing.T) {
		raw := `{"resourceType":"Patient","identifier":[{"system":"https://example.org/ids","value":"a-16349.E-t8080"},{"system":"https://example.org/patient-ids","value":"t8080"}]}`
		bundle := models.ResourceBundle{
			Name:    "patient.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Patient", "urn:uuid:pat-1", raw)},
		}

		err := uploader.ensurePatientIdentifiers(&bundle, "a-16349.E-t8080", "t8080")

		assert.NoError(t, err)
		assert.Equal(t, raw, string(bundle.Entries[0].Raw))
	})

	t.Run("Ignores Other Types", func(t *testing.T) {
		raw := `{"resourceType":"Observation","status":"final"}`
		bundle := models.ResourceBundle{
			Name:    "observations.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Observation", "urn:uuid:obs-1", raw)},
		}

		err := uploader.ensurePatientIdentifiers(&bundle, "a-16349.E-t8080", "t8080")

		assert.NoError(t, err)
		assert.Equal(t, raw, string(bundle.Entries[0].Raw))
	})

	t.Run("Invalid Patient JSON", func(t *testing.T) {
		bundle := models.ResourceBundle{
			Name:    "patient.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":`)},
		}

		err := uploader.ensurePatientIdentifiers(&bundle, "a-16349.E-t8080", "t8080")

		assert.Error(t, err)
		var customErr *exceptions.CustomError
		assert.ErrorAs(t, err, &customErr)
		assert.Equal(t, 422, customErr.StatusCode)
	})
}

func TestUploadBundles(t *testing.T) {
	t.Run("Captures IDs And Fills Records", func(t *testing.T) {
		client := new(MockBundleFhirClient)
		uploader := newTestUploader(client)
		bundle := models.ResourceBundle{
			Name:  "patient.json",
			Scope: models.BundleScopePatient,
			Entries: []models.BundleEntry{
				seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":"Patient"}`),
				seedEntry("Observation", "urn:uuid:obs-1", `{"resourceType":"Observation","subject":{"reference":"urn:uuid:pat-1"}}`),
			},
		}
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			Type:         "transaction-response",
			Entry: []fhir_dto.Entry{
				{Response: &fhir_dto.BundleResponse{Status: "201 Created", Location: "Patient/srv-p1/_history/1"}},
				{Response: &fhir_dto.BundleResponse{Status: "201 Created", Location: "Observation/srv-o1/_history/1"}},
			},
		}
		client.On("PostTransactionBundle", mock.Anything, mock.Anything).Return(response, nil).Once()

		idSet, err := uploader.UploadBundles(context.Background(), []models.ResourceBundle{bundle}, "a-16349.E-t8080", "t8080")

		assert.NoError(t, err)
		assert.Equal(t, 2, idSet.Len())
		patientID, ok := idSet.First("Patient")
		assert.True(t, ok)
		assert.Equal(t, "srv-p1", patientID)
		assert.Equal(t, "srv-p1", bundle.Entries[0].Record.RemoteID)
		assert.Equal(t, "srv-o1", bundle.Entries[1].Record.RemoteID)
		client.AssertExpectations(t)
	})

	t.Run("Stamps Patient Identifiers Before Posting", func(t *testing.T) {
		client := new(MockBundleFhirClient)
		uploader := newTestUploader(client)
		bundle := models.ResourceBundle{
			Name:    "patient.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":"Patient"}`)},
		}
		response := &fhir_dto.FHIRBundle{
			ResourceType: "Bundle",
			Type:         "transaction-response",
			Entry: []fhir_dto.Entry{
				{Response: &fhir_dto.BundleResponse{Status: "201 Created", Location: "Patient/srv-p1/_history/1"}},
			},
		}
		var posted *fhir_dto.FHIRBundle
		client.On("PostTransactionBundle", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { posted = args.Get(1).(*fhir_dto.FHIRBundle) }).
			Return(response, nil).Once()

		_, err := uploader.UploadBundles(context.Background(), []models.ResourceBundle{bundle}, "a-16349.E-t8080", "t8080")

		assert.NoError(t, err)
		assert.NotNil(t, posted)
		assert.Contains(t, string(posted.Entry[0].Resource), "https://example.org/ids")
		assert.Contains(t, string(posted.Entry[0].Resource), "a-16349.E-t8080")
	})

	t.Run("Upload Failure Aborts Remaining Bundles", func(t *testing.T) {
		client := new(MockBundleFhirClient)
		uploader := newTestUploader(client)
		shared := models.ResourceBundle{
			Name:    "shared.json",
			Scope:   models.BundleScopeShared,
			Entries: []models.BundleEntry{seedEntry("Organization", "urn:uuid:org-1", `{"resourceType":"Organization"}`)},
		}
		patient := models.ResourceBundle{
			Name:    "patient.json",
			Scope:   models.BundleScopePatient,
			Entries: []models.BundleEntry{seedEntry("Patient", "urn:uuid:pat-1", `{"resourceType":"Patient"}`)},
		}
		client.On("PostTransactionBundle", mock.Anything, mock.Anything).
			Return(nil, exceptions.ErrPostTransactionBundle(errors.New("connection refused"), "shared.json")).Once()

		_, err := uploader.UploadBundles(context.Background(), []models.ResourceBundle{shared, patient}, "a-16349.E-t8080", "t8080")

		assert.Error(t, err)
		client.AssertNumberOfCalls(t, "PostTransactionBundle", 1)
	})
}
