package patients

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/app/models"
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
	patientFhirClientInstance contracts.PatientFhirClient
	oncePatientFhirClient     sync.Once
)

type patientFhirClient struct {
	BaseUrl  string
	PageSize int
	Client   *http.Client
	Log      *zap.Logger
}

func NewPatientFhirClient(baseUrl string, pageSize int, httpClient *http.Client, logger *zap.Logger) contracts.PatientFhirClient {
	oncePatientFhirClient.Do(func() {
		client := &patientFhirClient{
			BaseUrl:  baseUrl,
			PageSize: pageSize,
			Client:   httpClient,
			Log:      logger,
		}
		patientFhirClientInstance = client
	})
	return patientFhirClientInstance
}

func (c *patientFhirClient) FindPatientByIdentifier(ctx context.Context, system, value string) ([]fhir_dto.Patient, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("patientFhirClient.FindPatientByIdentifier called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	searchURL := fmt.Sprintf("%s/%s?%s=%s", c.BaseUrl, constvars.ResourcePatient,
		constvars.FhirQueryParamIdentifier, url.QueryEscape(system+"|"+value))
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, searchURL, nil)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFhirJSON)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error("patientFhirClient.FindPatientByIdentifier error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK {
		return nil, c.upstreamError(requestID, "patientFhirClient.FindPatientByIdentifier", resp)
	}

	var searchset fhir_dto.FHIRBundle
	if derr := json.NewDecoder(resp.Body).Decode(&searchset); derr != nil {
		return nil, exceptions.ErrDecodeResponse(derr, constvars.ResourcePatient)
	}

	patients := make([]fhir_dto.Patient, 0, len(searchset.Entry))
	for _, entry := range searchset.Entry {
		if len(entry.Resource) == 0 {
			continue
		}
		var patient fhir_dto.Patient
		if uerr := json.Unmarshal(entry.Resource, &patient); uerr != nil {
			return nil, exceptions.ErrDecodeResponse(uerr, constvars.ResourcePatient)
		}
		if patient.ResourceType != constvars.ResourcePatient {
			continue
		}
		patients = append(patients, patient)
	}

	c.Log.Info("patientFhirClient.FindPatientByIdentifier succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingCountKey, len(patients)),
	)
	return patients, nil
}

// Everything walks the patient compartment page by page and returns the
// identity of every resource in it, the Patient itself included.
func (c *patientFhirClient) Everything(ctx context.Context, patientID string) ([]models.ResourceIdentity, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("patientFhirClient.Everything called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
	)

	pageURL := fmt.Sprintf("%s/%s/%s/%s?%s=%d", c.BaseUrl, constvars.ResourcePatient, patientID,
		constvars.FhirOperationEverything, constvars.FhirQueryParamCount, c.PageSize)

	var identities []models.ResourceIdentity
	for pageURL != "" {
		page, err := c.fetchPage(ctx, requestID, pageURL)
		if err != nil {
			return nil, err
		}
		for _, entry := range page.Entry {
			if len(entry.Resource) == 0 {
				continue
			}
			var envelope fhir_dto.ResourceEnvelope
			if uerr := json.Unmarshal(entry.Resource, &envelope); uerr != nil {
				return nil, exceptions.ErrDecodeResponse(uerr, constvars.ResourcePatient)
			}
			if envelope.ResourceType == "" || envelope.ID == "" {
				continue
			}
			if envelope.ResourceType == constvars.ResourceOperationOutcome {
				continue
			}
			identities = append(identities, models.ResourceIdentity{Type: envelope.ResourceType, ID: envelope.ID})
		}
		pageURL = c.rebasePageURL(page.NextLink())
	}

	c.Log.Info("patientFhirClient.Everything succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.Int(constvars.LoggingCountKey, len(identities)),
	)
	return identities, nil
}

func (c *patientFhirClient) fetchPage(ctx context.Context, requestID, pageURL string) (*fhir_dto.FHIRBundle, error) {
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, pageURL, nil)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFhirJSON)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error("patientFhirClient.fetchPage error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK {
		return nil, c.upstreamError(requestID, "patientFhirClient.fetchPage", resp)
	}

	var page fhir_dto.FHIRBundle
	if derr := json.NewDecoder(resp.Body).Decode(&page); derr != nil {
		return nil, exceptions.ErrDecodeResponse(derr, constvars.ResourceBundle)
	}
	return &page, nil
}

// rebasePageURL swaps the host a pagination link advertises for the
// configured one. Stores behind reverse proxies hand out links with their
// internal address.
func (c *patientFhirClient) rebasePageURL(link string) string {
	if link == "" {
		return ""
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	base, err := url.Parse(c.BaseUrl)
	if err != nil || parsed.Host == base.Host {
		return link
	}
	parsed.Scheme = base.Scheme
	parsed.Host = base.Host
	return parsed.String()
}

func (c *patientFhirClient) upstreamError(requestID, operation string, resp *http.Response) error {
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
