// internal/state/run.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/nikki/internal/types"
)

// RunStore is a JSONL-backed append-only ledger of run outcomes, stored in
// runs.jsonl under the root directory.
type RunStore struct {
	root string
	mu   sync.Mutex
}

// NewRunStore creates a new file-backed RunStore rooted at the given directory.
func NewRunStore(root string) *RunStore {
	return &RunStore{root: root}
}

// Path returns the ledger file path.
func (s *RunStore) Path() string {
	return filepath.Join(s.root, "runs.jsonl")
}

// Append adds a record to the end of the ledger.
func (s *RunStore) Append(_ context.Context, record *types.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open runs file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// Tail returns the last limit records, oldest first. A limit of zero or
// less returns every record.
func (s *RunStore) Tail(_ context.Context, limit int) ([]*types.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open runs file: %w", err)
	}
	defer f.Close()

	var records []*types.RunRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec types.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan runs file: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
