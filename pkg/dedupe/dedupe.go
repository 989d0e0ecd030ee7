// Package dedupe records which message IDs have already been executed, so a
// redelivered copy of a crashed-but-executed message can be deleted without
// repeating its side effects. The guard is best effort by design: a store
// failure is treated as "not seen" and processing continues.
package dedupe

import "context"

// Store marks and checks processed message IDs.
type Store interface {
	// Seen reports whether the ID was marked within the retention window.
	Seen(ctx context.Context, id string) (bool, error)
	// Mark records the ID as processed.
	Mark(ctx context.Context, id string) error
}
