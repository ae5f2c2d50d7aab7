// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

// RunID identifies one pipeline run in the ledger and logs.
type RunID string

// NewRunID returns a random UUIDv4 run ID.
func NewRunID() RunID {
	return RunID(uuid.New().String())
}
