package respond

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

const (
	responseTypeInChannel = "in_channel"
	responseTypeEphemeral = "ephemeral"

	// blocksThreshold is the character count above which (or when the text
	// spans multiple lines) the message is additionally rendered as blocks.
	blocksThreshold = 200

	// maxBlockTextLen keeps the rendered text under Slack's 3000-character
	// per-block ceiling.
	maxBlockTextLen  = 2900
	truncationMarker = "\n\n_...truncated_"
)

// SlackResponder posts results back to Slack via a slash command's response
// URL. Delivery is best effort: failures are reported to the router, which
// logs and drops them.
type SlackResponder struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewSlackResponder creates a SlackResponder. The HTTP client is shared
// across all workers and must carry its own timeout.
func NewSlackResponder(httpClient *http.Client, logger zerolog.Logger) *SlackResponder {
	return &SlackResponder{
		httpClient: httpClient,
		logger:     logger.With().Str("component", "SlackResponder").Logger(),
	}
}

// SendResult posts an in-channel success message, replacing the original
// "processing" placeholder from the slash command.
func (s *SlackResponder) SendResult(ctx context.Context, responseURL, text string) error {
	return s.post(ctx, responseURL, text, true, responseTypeInChannel, true)
}

// SendError posts an ephemeral failure message visible only to the caller.
func (s *SlackResponder) SendError(ctx context.Context, responseURL, text string) error {
	return s.post(ctx, responseURL, text, false, responseTypeEphemeral, false)
}

func (s *SlackResponder) post(ctx context.Context, responseURL, text string, success bool, responseType string, replaceOriginal bool) error {
	msg := &slack.WebhookMessage{
		ResponseType:    responseType,
		ReplaceOriginal: replaceOriginal,
		Text:            FormatText(text, success),
	}
	if blocks := buildBlocks(text, success); blocks != nil {
		msg.Blocks = &slack.Blocks{BlockSet: blocks}
	}
	return slack.PostWebhookCustomHTTPContext(ctx, responseURL, s.httpClient, msg)
}

// FormatText prefixes the message with an outcome marker.
func FormatText(text string, success bool) string {
	if success {
		return "✅ " + text
	}
	return "❌ " + text
}

// buildBlocks renders long or multi-line text into section blocks for richer
// formatting. Short single-line text returns nil and rides in the plain text
// field alone.
func buildBlocks(text string, success bool) []slack.Block {
	if utf8.RuneCountInString(text) <= blocksThreshold && !strings.Contains(text, "\n") {
		return nil
	}

	icon := ":white_check_mark:"
	if !success {
		icon = ":x:"
	}

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, icon+" *Result*", false, false),
			nil, nil,
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, Truncate(text, maxBlockTextLen), false, false),
			nil, nil,
		),
	}
}

// Truncate caps text at maxLen characters and appends the truncation marker.
// Text at or under the limit is returned unchanged. The cut counts runes, not
// bytes, so a multi-byte character is never split into invalid UTF-8.
func Truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + truncationMarker
}
