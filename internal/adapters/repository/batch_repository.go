package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/ports"
	"github.com/maidsafe/safeload/pkg/workspace"
)

// BatchRepository stores one JSON manifest per run in the runs directory
type BatchRepository struct {
	workspace *workspace.Workspace
	mu        sync.RWMutex
}

// NewBatchRepository creates a new manifest-backed repository
func NewBatchRepository(ws *workspace.Workspace) *BatchRepository {
	return &BatchRepository{
		workspace: ws,
	}
}

// Ensure it implements the interface
var _ ports.BatchRepository = (*BatchRepository)(nil)

// Save writes the batch manifest, replacing an earlier version of the same run
func (r *BatchRepository) Save(ctx context.Context, batch *domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.workspace.RunsPath, 0755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	// Write to a temp file first so a crash never leaves half a manifest
	path := r.workspace.ManifestPath(batch.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// Get retrieves a batch by its full ID, an ID prefix, or its stamp
func (r *BatchRepository) Get(ctx context.Context, id string) (*domain.Batch, error) {
	if id == "" {
		return nil, fmt.Errorf("run id is empty")
	}

	batches, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var matches []domain.Batch
	for _, b := range batches {
		if b.ID == id {
			return &b, nil
		}
		if strings.HasPrefix(b.ID, id) || b.Stamp == id {
			matches = append(matches, b)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run not found: %s", id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run id %q is ambiguous (%d matches)", id, len(matches))
	}
}

// List returns all batches, newest first. Unreadable manifests are skipped.
func (r *BatchRepository) List(ctx context.Context) ([]domain.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.workspace.RunsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Batch{}, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	batches := []domain.Batch{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.workspace.RunsPath, entry.Name()))
		if err != nil {
			continue
		}

		var batch domain.Batch
		if err := json.Unmarshal(data, &batch); err != nil {
			continue
		}
		batches = append(batches, batch)
	}

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].StartedAt.After(batches[j].StartedAt)
	})

	return batches, nil
}
