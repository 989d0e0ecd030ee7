package respond_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-ops-agent/pkg/pipeline"
	"github.com/illmade-knight/go-ops-agent/pkg/respond"
)

func TestWebhookCaller_SuccessEnvelope(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	caller := respond.NewWebhookCaller(&http.Client{Timeout: time.Second}, zerolog.Nop())
	err := caller.Send(context.Background(), server.URL, "msg-1", pipeline.Result{Success: true, Output: "all done"})
	require.NoError(t, err)

	assert.Equal(t, "msg-1", body["message_id"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "all done", body["response"])
	assert.Nil(t, body["error"], "Error field is JSON null on success")
}

func TestWebhookCaller_FailureEnvelope(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	caller := respond.NewWebhookCaller(&http.Client{Timeout: time.Second}, zerolog.Nop())
	err := caller.Send(context.Background(), server.URL, "msg-2", pipeline.Result{Success: false, Err: "it broke"})
	require.NoError(t, err)

	assert.Equal(t, false, body["success"])
	assert.Equal(t, "it broke", body["error"])
}

func TestWebhookCaller_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	caller := respond.NewWebhookCaller(&http.Client{Timeout: time.Second}, zerolog.Nop())
	err := caller.Send(context.Background(), server.URL, "msg-3", pipeline.Result{Success: true})
	assert.ErrorContains(t, err, "502")
}

func TestWebhookCaller_NetworkErrorIsError(t *testing.T) {
	caller := respond.NewWebhookCaller(&http.Client{Timeout: 100 * time.Millisecond}, zerolog.Nop())
	err := caller.Send(context.Background(), "http://127.0.0.1:1", "msg-4", pipeline.Result{Success: true})
	assert.Error(t, err)
}
