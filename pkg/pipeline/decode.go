package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/illmade-knight/go-ops-agent/pkg/queue"
)

// PoisonError marks a message that can never be validly decoded. Poison
// messages are deleted immediately without redelivery and never reach the
// processor or a response sink.
type PoisonError struct {
	Reason string
	Err    error
}

func (e *PoisonError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("poison message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("poison message: %s", e.Reason)
}

func (e *PoisonError) Unwrap() error { return e.Err }

// envelope is the wire format of a queue message body. The request text lives
// in "request" with "prompt" as a legacy alias, and a Slack response URL may
// appear either at the top level or nested in metadata.
type envelope struct {
	Request     string         `json:"request"`
	Prompt      string         `json:"prompt"`
	Source      string         `json:"source"`
	CallbackURL string         `json:"callback_url"`
	ResponseURL string         `json:"response_url"`
	Profile     string         `json:"profile"`
	RoleARN     string         `json:"role_arn"`
	Region      string         `json:"region"`
	Metadata    map[string]any `json:"metadata"`
}

// DecodeRequest parses and validates a queue message body. Any returned error
// is a *PoisonError: either the body is not valid JSON, or neither the
// primary nor the alias text field is present and non-empty.
func DecodeRequest(msg queue.Message) (*Request, error) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Body), &env); err != nil {
		return nil, &PoisonError{Reason: "invalid JSON body", Err: err}
	}

	text := env.Request
	if text == "" {
		text = env.Prompt
	}
	if text == "" {
		return nil, &PoisonError{Reason: "missing required field: request or prompt"}
	}

	responseURL := env.ResponseURL
	if responseURL == "" {
		if nested, ok := env.Metadata["response_url"].(string); ok {
			responseURL = nested
		}
	}

	source := SourceGeneric
	if env.Source == string(SourceSlack) || responseURL != "" {
		source = SourceSlack
	}

	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	return &Request{
		ID:          id,
		Text:        text,
		Source:      source,
		CallbackURL: env.CallbackURL,
		ResponseURL: responseURL,
		Context:     buildContext(&env),
	}, nil
}

// buildContext flattens the optional envelope fields into the opaque context
// map handed to the processor.
func buildContext(env *envelope) map[string]string {
	ctx := make(map[string]string)
	if env.Profile != "" {
		ctx["profile"] = env.Profile
	}
	if env.RoleARN != "" {
		ctx["role_arn"] = env.RoleARN
	}
	if env.Region != "" {
		ctx["region"] = env.Region
	}
	for k, v := range env.Metadata {
		if k == "response_url" {
			// Routing detail, not processor context.
			continue
		}
		if s, ok := v.(string); ok {
			ctx[k] = s
		}
	}
	if len(ctx) == 0 {
		return nil
	}
	return ctx
}
