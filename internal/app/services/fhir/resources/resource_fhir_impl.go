package resources

import (
	"bytes"
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/fhir_dto"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

var (
	resourceFhirClientInstance contracts.ResourceFhirClient
	onceResourceFhirClient     sync.Once
)

type resourceFhirClient struct {
	BaseUrl      string
	ExpungeLimit int
	Client       *http.Client
	Log          *zap.Logger
}

func NewResourceFhirClient(baseUrl string, expungeLimit int, httpClient *http.Client, logger *zap.Logger) contracts.ResourceFhirClient {
	onceResourceFhirClient.Do(func() {
		client := &resourceFhirClient{
			BaseUrl:      baseUrl,
			ExpungeLimit: expungeLimit,
			Client:       httpClient,
			Log:          logger,
		}
		resourceFhirClientInstance = client
	})
	return resourceFhirClientInstance
}

func (c *resourceFhirClient) FindByIdentifier(ctx context.Context, resourceType, system, value string) ([]fhir_dto.ResourceEnvelope, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("resourceFhirClient.FindByIdentifier called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
	)

	searchURL := fmt.Sprintf("%s/%s?%s=%s", c.BaseUrl, resourceType,
		constvars.FhirQueryParamIdentifier, url.QueryEscape(system+"|"+value))
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, searchURL, nil)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFhirJSON)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error("resourceFhirClient.FindByIdentifier error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK {
		return nil, c.upstreamError(requestID, "resourceFhirClient.FindByIdentifier", resp)
	}

	var searchset fhir_dto.FHIRBundle
	if derr := json.NewDecoder(resp.Body).Decode(&searchset); derr != nil {
		return nil, exceptions.ErrDecodeResponse(derr, resourceType)
	}

	envelopes := make([]fhir_dto.ResourceEnvelope, 0, len(searchset.Entry))
	for _, entry := range searchset.Entry {
		if len(entry.Resource) == 0 {
			continue
		}
		var envelope fhir_dto.ResourceEnvelope
		if uerr := json.Unmarshal(entry.Resource, &envelope); uerr != nil {
			return nil, exceptions.ErrDecodeResponse(uerr, resourceType)
		}
		if envelope.ResourceType != resourceType {
			continue
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

// SearchByPatient lists resources of one type linked to a patient. It backs
// the closure fallback used when $everything is unavailable.
func (c *resourceFhirClient) SearchByPatient(ctx context.Context, resourceType, patientID string) ([]fhir_dto.ResourceEnvelope, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("resourceFhirClient.SearchByPatient called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingPatientIDKey, patientID),
	)

	searchURL := fmt.Sprintf("%s/%s?%s=%s", c.BaseUrl, resourceType,
		constvars.FhirQueryParamPatient, url.QueryEscape(patientID))
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, searchURL, nil)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFhirJSON)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error("resourceFhirClient.SearchByPatient error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK {
		return nil, c.upstreamError(requestID, "resourceFhirClient.SearchByPatient", resp)
	}

	var searchset fhir_dto.FHIRBundle
	if derr := json.NewDecoder(resp.Body).Decode(&searchset); derr != nil {
		return nil, exceptions.ErrDecodeResponse(derr, resourceType)
	}

	envelopes := make([]fhir_dto.ResourceEnvelope, 0, len(searchset.Entry))
	for _, entry := range searchset.Entry {
		if len(entry.Resource) == 0 {
			continue
		}
		var envelope fhir_dto.ResourceEnvelope
		if uerr := json.Unmarshal(entry.Resource, &envelope); uerr != nil {
			return nil, exceptions.ErrDecodeResponse(uerr, resourceType)
		}
		if envelope.ResourceType != resourceType {
			continue
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

func (c *resourceFhirClient) DeleteResource(ctx context.Context, resourceType, id string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("resourceFhirClient.DeleteResource called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, id),
	)

	deleteURL := fmt.Sprintf("%s/%s/%s", c.BaseUrl, resourceType, id)
	req, err := http.NewRequestWithContext(ctx, constvars.MethodDelete, deleteURL, nil)
	if err != nil {
		return exceptions.ErrCreateHTTPRequest(err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error("resourceFhirClient.DeleteResource error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case constvars.StatusOK, constvars.StatusAccepted, constvars.StatusNoContent:
		return nil
	default:
		return c.upstreamError(requestID, "resourceFhirClient.DeleteResource", resp)
	}
}

// ExpungeResource permanently erases a logically deleted resource and its
// version history.
func (c *resourceFhirClient) ExpungeResource(ctx context.Context, resourceType, id string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("resourceFhirClient.ExpungeResource called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, id),
	)

	parameters := fhir_dto.NewExpungeParameters(c.ExpungeLimit)
	requestJSON, err := json.Marshal(parameters)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	expungeURL := fmt.Sprintf("%s/%s/%s/%s", c.BaseUrl, resourceType, id, constvars.FhirOperationExpunge)
	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, expungeURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFhirJSON)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error("resourceFhirClient.ExpungeResource error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK && resp.StatusCode != constvars.StatusNoContent {
		return c.upstreamError(requestID, "resourceFhirClient.ExpungeResource", resp)
	}
	return nil
}

func (c *resourceFhirClient) upstreamError(requestID, operation string, resp *http.Response) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return exceptions.ErrReadResponseBody(err)
	}
	diagnostics := string(bodyBytes)
	var outcome fhir_dto.OperationOutcome
	if uerr := json.Unmarshal(bodyBytes, &outcome); uerr == nil && outcome.FirstDiagnostics() != "" {
		diagnostics = outcome.FirstDiagnostics()
	}
	fhirErr := fmt.Errorf("%s", diagnostics)
	c.Log.Warn(operation+" store replied non-2xx",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int("status", resp.StatusCode),
		zap.Error(fhirErr),
	)
	return exceptions.ErrFhirResponseStatus(fhirErr, resp.StatusCode, diagnostics)
}
