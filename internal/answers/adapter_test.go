package answers_test

import (
	"context"
	"github.com/agajdosi/artificial-witness/internal/answers"
	"github.com/agajdosi/artificial-witness/internal/api"
	"github.com/agajdosi/artificial-witness/internal/models"
	"github.com/agajdosi/artificial-witness/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *answers.Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := testhelpers.NewLogger(io.Discard)
	client, err := api.NewClient(srv.URL, srv.Client(), logger)
	require.NoError(t, err)
	return answers.NewAdapter(client, logger)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantAvailable bool
		wantText      string
	}{
		{name: "answer", status: http.StatusOK,
			body:          `{"UUID":"a1","Text":"It was misty.","Timestamp":"2024-10-01"}`,
			wantAvailable: true, wantText: "It was misty."},
		{name: "empty text is still available", status: http.StatusOK, body: `{"UUID":"a1","Text":""}`,
			wantAvailable: true, wantText: ""},
		{name: "server error", status: http.StatusInternalServerError, wantAvailable: false},
		{name: "malformed body", status: http.StatusOK, body: `"misty"`, wantAvailable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/get_or_generate_answer", r.URL.Path)
				assert.Equal(t, "p1", r.URL.Query().Get("player_uuid"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			answer, ok := adapter.Generate(context.Background(), "p1", "r1").Get()
			require.Equal(t, tt.wantAvailable, ok)
			require.Equal(t, tt.wantText, answer.Text)
		})
	}
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	logger := testhelpers.NewLogger(io.Discard)
	client, err := api.NewClient(url, nil, logger)
	require.NoError(t, err)

	_, ok := answers.NewAdapter(client, logger).Generate(context.Background(), "p1", "r1").Get()
	require.False(t, ok)
}

func TestResultZeroValueIsUnavailable(t *testing.T) {
	var r answers.Result
	answer, ok := r.Get()
	require.False(t, ok)
	require.Equal(t, models.Answer{}, answer)

	_, ok = answers.Available(models.Answer{UUID: "a1", Text: "yes"}).Get()
	require.True(t, ok)
}

func TestWait(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("round_uuid") != "r1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`"It was misty."`))
	})

	text, err := adapter.Wait(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "It was misty.", text)

	_, err = adapter.Wait(context.Background(), "r2")
	require.ErrorIs(t, err, answers.ErrAnswerWait)
	require.ErrorIs(t, err, api.ErrStatus)
}
