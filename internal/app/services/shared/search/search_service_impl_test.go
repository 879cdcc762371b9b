package search

import (
	"chartseed-service/internal/pkg/exceptions"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTagPatientResources(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			assert.Equal(t, http.MethodPost, r.Method)
		}))
		defer server.Close()

		service := &searchService{BaseUrl: server.URL, Client: server.Client(), Log: zap.NewNop()}

		err := service.TagPatientResources(context.Background(), "a-16349.E-t8080")

		assert.NoError(t, err)
		assert.Equal(t, "/tagPatientResources/a-16349.E-t8080", gotPath)
	})

	t.Run("Upstream Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		service := &searchService{BaseUrl: server.URL, Client: server.Client(), Log: zap.NewNop()}

		err := service.TagPatientResources(context.Background(), "a-16349.E-t8080")

		assert.Error(t, err)
		customErr, ok := err.(*exceptions.CustomError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, customErr.StatusCode)
		assert.Contains(t, customErr.DevMessage, "a-16349.E-t8080")
	})
}

func TestIndexPatientRecord(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		service := &searchService{BaseUrl: server.URL, Client: server.Client(), Log: zap.NewNop()}

		err := service.IndexPatientRecord(context.Background(), "a-16349.E-t8080")

		assert.NoError(t, err)
		assert.Equal(t, "/indexPatient/a-16349.E-t8080", gotPath)
	})

	t.Run("Unreachable Service", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := server.Client()
		server.Close()

		service := &searchService{BaseUrl: server.URL, Client: client, Log: zap.NewNop()}

		err := service.IndexPatientRecord(context.Background(), "a-16349.E-t8080")

		assert.Error(t, err)
	})
}
