package ai_test

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/ai"
	"github.com/agajdosi/artificial-witness/internal/models"
	"github.com/agajdosi/artificial-witness/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"id":"mistral:latest","object":"model","owned_by":"library"},
			{"id":"llama3:8b","object":"model","owned_by":"library"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	client := ai.NewClient("ollama", srv.URL+"/v1/", "", srv.Client(), testhelpers.NewLogger(io.Discard))
	list, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Model{
		{Name: "llama3:8b", Service: "ollama", Visual: false, Allowed: true, Historical: false},
		{Name: "mistral:latest", Service: "ollama", Visual: false, Allowed: true, Historical: false},
	}, list)

	service := client.Service()
	require.Equal(t, "ollama", service.Name)
	require.Equal(t, "local", service.Type)
	require.Equal(t, srv.URL+"/v1", service.URL)
}

func TestListModelsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := ai.NewClient("ollama", srv.URL+"/v1", "", nil, testhelpers.NewLogger(io.Discard))
	_, err := client.ListModels(context.Background())
	require.Error(t, err)
}
