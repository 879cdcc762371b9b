package httpclient

import (
	"chartseed-service/internal/app/config"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the one client every outbound call shares. The dial
// timeout bounds connection establishment; the client timeout bounds the
// whole exchange including body reads.
func NewHTTPClient(internalConfig *config.InternalConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout: time.Duration(internalConfig.FHIR.ConnectTimeoutInSeconds) * time.Second,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   time.Duration(internalConfig.FHIR.RequestTimeoutInSeconds) * time.Second,
		Transport: transport,
	}
}
