// Package respond delivers request results to their response targets: a
// Slack response URL, a generic callback webhook, or nowhere at all.
package respond

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-ops-agent/pkg/pipeline"
)

// ChatSink posts results to a chat-platform response URL.
type ChatSink interface {
	// SendResult posts a success-styled, in-channel message.
	SendResult(ctx context.Context, responseURL, text string) error
	// SendError posts an ephemeral, error-styled message.
	SendError(ctx context.Context, responseURL, text string) error
}

// WebhookSink posts results to a generic callback URL.
type WebhookSink interface {
	Send(ctx context.Context, callbackURL, requestID string, res pipeline.Result) error
}

// Router selects exactly one sink per completed request. Sink failures are
// logged and swallowed: the underlying queue message is already deleted, so
// there is nothing left to retry against.
type Router struct {
	chat    ChatSink
	webhook WebhookSink
	logger  zerolog.Logger
}

// NewRouter creates a Router over the given sinks.
func NewRouter(chat ChatSink, webhook WebhookSink, logger zerolog.Logger) (*Router, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat sink cannot be nil")
	}
	if webhook == nil {
		return nil, fmt.Errorf("webhook sink cannot be nil")
	}
	return &Router{
		chat:    chat,
		webhook: webhook,
		logger:  logger.With().Str("component", "Router").Logger(),
	}, nil
}

// Deliver routes a result. A Slack request with a response URL always wins
// over a callback URL; a request with neither target is logged and dropped.
func (r *Router) Deliver(ctx context.Context, req *pipeline.Request, res pipeline.Result) {
	log := r.logger.With().Str("request_id", req.ID).Logger()

	switch {
	case req.Source == pipeline.SourceSlack && req.ResponseURL != "":
		var err error
		if res.Success {
			err = r.chat.SendResult(ctx, req.ResponseURL, res.Output)
		} else {
			err = r.chat.SendError(ctx, req.ResponseURL, res.Err)
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to send Slack response.")
			return
		}
		log.Info().Msg("Slack response sent.")

	case req.CallbackURL != "":
		if err := r.webhook.Send(ctx, req.CallbackURL, req.ID, res); err != nil {
			log.Error().Err(err).Str("callback_url", req.CallbackURL).Msg("Failed to send callback.")
			return
		}
		log.Info().Str("callback_url", req.CallbackURL).Msg("Callback sent.")

	default:
		log.Info().Msg("No response target configured, discarding result.")
	}
}
