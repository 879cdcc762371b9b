package search

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/exceptions"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

type searchService struct {
	BaseUrl string
	Client  *http.Client
	Log     *zap.Logger
}

var (
	searchServiceInstance contracts.SearchClient
	onceSearchService     sync.Once
)

func NewSearchService(baseUrl string, httpClient *http.Client, logger *zap.Logger) contracts.SearchClient {
	onceSearchService.Do(func() {
		instance := &searchService{
			BaseUrl: baseUrl,
			Client:  httpClient,
			Log:     logger,
		}
		searchServiceInstance = instance
	})
	return searchServiceInstance
}

// TagPatientResources asks the search service to stamp every clinical
// resource reachable from the entity identified by externalID.
func (s *searchService) TagPatientResources(ctx context.Context, externalID string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("searchService.TagPatientResources called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, externalID),
	)

	tagURL := fmt.Sprintf("%s/tagPatientResources/%s", s.BaseUrl, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, tagURL, nil)
	if err != nil {
		return exceptions.ErrCreateHTTPRequest(err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Log.Error("searchService.TagPatientResources error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != constvars.StatusOK &&
		resp.StatusCode != constvars.StatusAccepted &&
		resp.StatusCode != constvars.StatusNoContent {
		s.Log.Error("searchService.TagPatientResources unexpected status",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int("status", resp.StatusCode),
		)
		return exceptions.ErrTagPatientResources(fmt.Errorf("tagging returned status %d", resp.StatusCode), externalID)
	}

	s.Log.Info("searchService.TagPatientResources succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, externalID),
	)
	return nil
}

// IndexPatientRecord asks the search service to (re)index the entity's
// patient record.
func (s *searchService) IndexPatientRecord(ctx context.Context, externalID string) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("searchService.IndexPatientRecord called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, externalID),
	)

	indexURL := fmt.Sprintf("%s/indexPatient/%s", s.BaseUrl, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, indexURL, nil)
	if err != nil {
		return exceptions.ErrCreateHTTPRequest(err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Log.Error("searchService.IndexPatientRecord error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != constvars.StatusOK &&
		resp.StatusCode != constvars.StatusAccepted &&
		resp.StatusCode != constvars.StatusNoContent {
		s.Log.Error("searchService.IndexPatientRecord unexpected status",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int("status", resp.StatusCode),
		)
		return exceptions.ErrIndexPatientRecord(fmt.Errorf("indexing returned status %d", resp.StatusCode), externalID)
	}

	s.Log.Info("searchService.IndexPatientRecord succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, externalID),
	)
	return nil
}
