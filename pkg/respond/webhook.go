package respond

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-ops-agent/pkg/pipeline"
)

// callbackEnvelope is the fixed JSON body posted to a callback URL.
type callbackEnvelope struct {
	MessageID string  `json:"message_id"`
	Success   bool    `json:"success"`
	Response  string  `json:"response"`
	Error     *string `json:"error"`
}

// WebhookCaller posts results to generic callback URLs.
type WebhookCaller struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewWebhookCaller creates a WebhookCaller sharing the given HTTP client.
func NewWebhookCaller(httpClient *http.Client, logger zerolog.Logger) *WebhookCaller {
	return &WebhookCaller{
		httpClient: httpClient,
		logger:     logger.With().Str("component", "WebhookCaller").Logger(),
	}
}

// Send posts the result envelope. A network failure or a non-2xx status is
// returned as an error; the router logs it and moves on.
func (w *WebhookCaller) Send(ctx context.Context, callbackURL, requestID string, res pipeline.Result) error {
	envelope := callbackEnvelope{
		MessageID: requestID,
		Success:   res.Success,
		Response:  res.Output,
	}
	if res.Err != "" {
		envelope.Error = &res.Err
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal callback body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post callback: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
