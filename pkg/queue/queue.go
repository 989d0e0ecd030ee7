// Package queue abstracts a durable work queue with long-poll receive,
// per-message visibility leases, and explicit delete acknowledgment.
package queue

import (
	"context"
)

// Message is one unit of work delivered by the queue. It is immutable once
// received and owned exclusively by the worker processing it until it is
// deleted or its visibility lease expires.
type Message struct {
	// ID is the queue-assigned identifier, unique per delivery.
	ID string

	// ReceiptHandle is the opaque token required to delete this delivery.
	// It is invalidated by a delete or by visibility expiry.
	ReceiptHandle string

	// Body is the raw message payload.
	Body string
}

// Source is the contract for a remote durable queue.
type Source interface {
	// Receive blocks up to the configured long-poll wait for at least one
	// message. A timeout yields an empty slice, not an error. Errors are
	// transient and callers are expected to back off and retry.
	Receive(ctx context.Context) ([]Message, error)

	// Delete acknowledges a delivery so it can never be redelivered. A delete
	// with an expired receipt handle fails; callers treat that as non-fatal
	// since the message may already be back in flight.
	Delete(ctx context.Context, receiptHandle string) error
}
