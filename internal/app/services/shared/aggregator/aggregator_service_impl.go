package aggregator

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/exceptions"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

type aggregatorService struct {
	BaseUrl string
	Client  *http.Client
	Log     *zap.Logger
}

var (
	aggregatorServiceInstance contracts.AggregatorClient
	onceAggregatorService     sync.Once
)

func NewAggregatorService(baseUrl string, httpClient *http.Client, logger *zap.Logger) contracts.AggregatorClient {
	onceAggregatorService.Do(func() {
		instance := &aggregatorService{
			BaseUrl: baseUrl,
			Client:  httpClient,
			Log:     logger,
		}
		aggregatorServiceInstance = instance
	})
	return aggregatorServiceInstance
}

// ReloadMappingCache tells the aggregator to drop its in-memory identifier
// mapping cache and re-read it from the relational store. The call carries
// no payload and is safe to repeat.
func (s *aggregatorService) ReloadMappingCache(ctx context.Context) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("aggregatorService.ReloadMappingCache called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	reloadURL := fmt.Sprintf("%s/cache/reload-mappings", s.BaseUrl)
	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, reloadURL, nil)
	if err != nil {
		return exceptions.ErrCreateHTTPRequest(err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Log.Error("aggregatorService.ReloadMappingCache error sending HTTP request",
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
		s.Log.Error("aggregatorService.ReloadMappingCache unexpected status",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int("status", resp.StatusCode),
		)
		return exceptions.ErrAggregatorCacheReload(fmt.Errorf("reload returned status %d", resp.StatusCode))
	}

	s.Log.Info("aggregatorService.ReloadMappingCache succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)
	return nil
}
