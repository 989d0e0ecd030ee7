// Package pipeline contains the queue-consumption engine: envelope decoding,
// the processor contract, and the bounded worker pool that drives each
// message through decode, execute, delete, and response routing.
package pipeline

import (
	"context"
)

// RequestSource identifies where a request originated, resolved once at
// decode time and never re-inferred during routing.
type RequestSource string

const (
	// SourceGeneric marks a request submitted directly to the queue, with an
	// optional callback webhook.
	SourceGeneric RequestSource = "generic"

	// SourceSlack marks a request that arrived via a Slack slash command and
	// carries a response URL for the reply.
	SourceSlack RequestSource = "slack"
)

// Request is the decoded, validated form of one queue message. It is created
// once per message and is immutable afterwards.
type Request struct {
	// ID identifies the request; it is the queue message ID when present.
	ID string

	// Text is the operation to perform. Always non-empty after a successful
	// decode.
	Text string

	Source RequestSource

	// CallbackURL, when set, receives the result as a webhook POST.
	CallbackURL string

	// ResponseURL, when set on a Slack request, receives the reply.
	ResponseURL string

	// Context carries profile, role, region, and arbitrary metadata fields
	// passed opaquely to the processor.
	Context map[string]string
}

// Result is the outcome of executing one Request. Produced exactly once.
type Result struct {
	Success bool
	Output  string
	Err     string
}

// Failure builds a failed Result from an error description.
func Failure(errText string) Result {
	return Result{Success: false, Err: errText}
}

// Processor executes the domain logic for one request. It may take
// arbitrarily long and perform arbitrary I/O. Expected domain failures are
// reported as Result{Success: false}; a returned error or a panic is an
// unexpected failure that the pool converts into a failed Result.
type Processor interface {
	Execute(ctx context.Context, req *Request) (Result, error)
}

// ResultRouter delivers a completed request's result to its response target.
// Delivery is best effort; implementations log failures and never escalate.
type ResultRouter interface {
	Deliver(ctx context.Context, req *Request, res Result)
}
