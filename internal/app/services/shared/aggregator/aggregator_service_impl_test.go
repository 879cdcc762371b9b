package aggregator

import (
	"chartseed-service/internal/pkg/exceptions"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestReloadMappingCache(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotMethod, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		service := &aggregatorService{BaseUrl: server.URL, Client: server.Client(), Log: zap.NewNop()}

		err := service.ReloadMappingCache(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "/cache/reload-mappings", gotPath)
	})

	t.Run("Upstream Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		service := &aggregatorService{BaseUrl: server.URL, Client: server.Client(), Log: zap.NewNop()}

		err := service.ReloadMappingCache(context.Background())

		assert.Error(t, err)
		customErr, ok := err.(*exceptions.CustomError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, customErr.StatusCode)
	})

	t.Run("Unreachable Service", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := server.Client()
		server.Close()

		service := &aggregatorService{BaseUrl: server.URL, Client: client, Log: zap.NewNop()}

		err := service.ReloadMappingCache(context.Background())

		assert.Error(t, err)
	})
}
