package telemetry

import "context"

// Sink is a secondary, best-effort destination for records. Publish is called
// at most once per record and a failed record is never retried.
type Sink interface {
	Name() string
	Publish(ctx context.Context, rec Record) error
	Close() error
}
