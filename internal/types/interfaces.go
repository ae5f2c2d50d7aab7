// internal/types/interfaces.go
package types

import (
	"context"
)

// Source returns a channel's raw message history in the order the source
// returned it.
type Source interface {
	History(ctx context.Context, channel string) ([]RawMessage, error)
}

// Publisher submits a document to the remote store. A nil error means the
// store reported the document as created.
type Publisher interface {
	Publish(ctx context.Context, doc Document) (*Published, error)
}

type RunStore interface {
	Append(ctx context.Context, record *RunRecord) error
	Tail(ctx context.Context, limit int) ([]*RunRecord, error)
}
