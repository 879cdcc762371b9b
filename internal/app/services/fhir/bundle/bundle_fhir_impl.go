package bundle

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
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

var (
	bundleFhirClientInstance contracts.BundleFhirClient
	onceBundleFhirClient     sync.Once
)

type bundleFhirClient struct {
	BaseUrl string
	Client  *http.Client
	Log     *zap.Logger
}

func NewBundleFhirClient(baseUrl string, httpClient *http.Client, logger *zap.Logger) contracts.BundleFhirClient {
	onceBundleFhirClient.Do(func() {
		client := &bundleFhirClient{
			BaseUrl: baseUrl,
			Client:  httpClient,
			Log:     logger,
		}
		bundleFhirClientInstance = client
	})
	return bundleFhirClientInstance
}

// PostTransactionBundle posts the bundle against the store base URL and
// returns the transaction-response bundle, whose entries carry the
// server-assigned locations.
func (c *bundleFhirClient) PostTransactionBundle(ctx context.Context, bundle *fhir_dto.FHIRBundle) (*fhir_dto.FHIRBundle, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	c.Log.Info("bundleFhirClient.PostTransactionBundle called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingCountKey, len(bundle.Entry)),
	)

	requestJSON, err := json.Marshal(bundle)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, c.BaseUrl, bytes.NewBuffer(requestJSON))
	if err != nil {
		c.Log.Error("bundleFhirClient.PostTransactionBundle error creating HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFhirJSON)

	resp, err := c.Client.Do(req)
	if err != nil {
		c.Log.Error("bundleFhirClient.PostTransactionBundle error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != constvars.StatusOK && resp.StatusCode != constvars.StatusCreated {
		bodyBytes, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return nil, exceptions.ErrReadResponseBody(rerr)
		}
		diagnostics := string(bodyBytes)
		var outcome fhir_dto.OperationOutcome
		if uerr := json.Unmarshal(bodyBytes, &outcome); uerr == nil && outcome.FirstDiagnostics() != "" {
			diagnostics = outcome.FirstDiagnostics()
		}
		fhirErr := fmt.Errorf("%s", diagnostics)
		c.Log.Error("bundleFhirClient.PostTransactionBundle store rejected bundle",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int("status", resp.StatusCode),
			zap.Error(fhirErr),
		)
		return nil, exceptions.ErrFhirResponseStatus(fhirErr, resp.StatusCode, diagnostics)
	}

	var result fhir_dto.FHIRBundle
	if derr := json.NewDecoder(resp.Body).Decode(&result); derr != nil {
		return nil, exceptions.ErrDecodeResponse(derr, constvars.ResourceBundle)
	}

	c.Log.Info("bundleFhirClient.PostTransactionBundle succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingBundleKey, result.ID),
		zap.Int(constvars.LoggingCountKey, len(result.Entry)),
	)
	return &result, nil
}
