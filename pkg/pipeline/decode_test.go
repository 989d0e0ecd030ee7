package pipeline_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-ops-agent/pkg/pipeline"
	"github.com/illmade-knight/go-ops-agent/pkg/queue"
)

func TestDecodeRequest_PrimaryField(t *testing.T) {
	msg := queue.Message{
		ID:   "msg-1",
		Body: `{"request": "list the buckets", "callback_url": "https://example.com/cb"}`,
	}

	req, err := pipeline.DecodeRequest(msg)
	require.NoError(t, err)

	assert.Equal(t, "msg-1", req.ID)
	assert.Equal(t, "list the buckets", req.Text)
	assert.Equal(t, pipeline.SourceGeneric, req.Source)
	assert.Equal(t, "https://example.com/cb", req.CallbackURL)
	assert.Empty(t, req.ResponseURL)
}

func TestDecodeRequest_AliasField(t *testing.T) {
	msg := queue.Message{ID: "msg-2", Body: `{"prompt": "rotate the secret"}`}

	req, err := pipeline.DecodeRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, "rotate the secret", req.Text)
}

func TestDecodeRequest_PrimaryWinsOverAlias(t *testing.T) {
	msg := queue.Message{ID: "msg-3", Body: `{"request": "primary", "prompt": "alias"}`}

	req, err := pipeline.DecodeRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, "primary", req.Text)
}

func TestDecodeRequest_SlackSourceFromMetadata(t *testing.T) {
	msg := queue.Message{
		ID:   "msg-4",
		Body: `{"request": "check dns", "metadata": {"response_url": "https://hooks.slack.com/r/1", "channel": "ops"}}`,
	}

	req, err := pipeline.DecodeRequest(msg)
	require.NoError(t, err)

	assert.Equal(t, pipeline.SourceSlack, req.Source)
	assert.Equal(t, "https://hooks.slack.com/r/1", req.ResponseURL)
	// The response URL is routing detail; the rest of the metadata rides
	// through as context.
	assert.Equal(t, "ops", req.Context["channel"])
	assert.NotContains(t, req.Context, "response_url")
}

func TestDecodeRequest_ExplicitSlackSource(t *testing.T) {
	msg := queue.Message{
		ID:   "msg-5",
		Body: `{"request": "check dns", "source": "slack", "response_url": "https://hooks.slack.com/r/2"}`,
	}

	req, err := pipeline.DecodeRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SourceSlack, req.Source)
	assert.Equal(t, "https://hooks.slack.com/r/2", req.ResponseURL)
}

func TestDecodeRequest_ContextFields(t *testing.T) {
	msg := queue.Message{
		ID:   "msg-6",
		Body: `{"request": "audit", "profile": "prod", "role_arn": "arn:aws:iam::1:role/ops", "region": "eu-west-1"}`,
	}

	req, err := pipeline.DecodeRequest(msg)
	require.NoError(t, err)

	assert.Equal(t, "prod", req.Context["profile"])
	assert.Equal(t, "arn:aws:iam::1:role/ops", req.Context["role_arn"])
	assert.Equal(t, "eu-west-1", req.Context["region"])
}

func TestDecodeRequest_MalformedJSONIsPoison(t *testing.T) {
	msg := queue.Message{ID: "msg-7", Body: `{"request": "oops"`}

	_, err := pipeline.DecodeRequest(msg)
	require.Error(t, err)

	var poison *pipeline.PoisonError
	require.ErrorAs(t, err, &poison)

	// The poison error carries the JSON decode failure as its category.
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestDecodeRequest_MissingTextIsPoison(t *testing.T) {
	cases := map[string]string{
		"no text fields":   `{"callback_url": "https://example.com/cb"}`,
		"empty primary":    `{"request": ""}`,
		"empty both":       `{"request": "", "prompt": ""}`,
		"wrong field type": `{"request": 42}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := pipeline.DecodeRequest(queue.Message{ID: "msg", Body: body})
			var poison *pipeline.PoisonError
			require.ErrorAs(t, err, &poison)
		})
	}
}

func TestDecodeRequest_SynthesizesIDWhenMissing(t *testing.T) {
	req, err := pipeline.DecodeRequest(queue.Message{Body: `{"request": "hello"}`})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
}
