package services

import (
	"context"
	"fmt"
	"os"

	"github.com/maidsafe/safeload/internal/core/ports"
	"github.com/maidsafe/safeload/pkg/workspace"
)

// VerifyService checks that a run left a complete set of files and address records
type VerifyService struct {
	batches   ports.BatchRepository
	workspace *workspace.Workspace
}

// NewVerifyService creates a new verify service
func NewVerifyService(batches ports.BatchRepository, ws *workspace.Workspace) *VerifyService {
	return &VerifyService{
		batches:   batches,
		workspace: ws,
	}
}

// VerifyRequest selects what to verify. RunID wins over Stamp.
type VerifyRequest struct {
	RunID string
	Stamp string
	Count int
	Size  int64
}

// ItemCheck is the verification result for one index
type ItemCheck struct {
	Index       int
	FilePath    string
	FileSize    int64
	FileOK      bool
	AddressPath string
	AddressOK   bool
	Problems    []string
}

// OK reports whether both artifacts passed
func (c ItemCheck) OK() bool {
	return c.FileOK && c.AddressOK
}

// VerifyResponse represents the outcome of a verification
type VerifyResponse struct {
	Stamp  string
	Checks []ItemCheck
	Passed int
	Failed int
}

// Execute verifies every index of a run
func (s *VerifyService) Execute(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	stamp, count, size := req.Stamp, req.Count, req.Size

	if req.RunID != "" {
		batch, err := s.batches.Get(ctx, req.RunID)
		if err != nil {
			return nil, err
		}
		stamp = batch.Stamp
		if count <= 0 {
			count = len(batch.Items)
		}
		if size <= 0 {
			size = batch.FileSize
		}
	}

	if stamp == "" {
		return nil, fmt.Errorf("a run id or stamp is required")
	}
	if count <= 0 {
		return nil, fmt.Errorf("item count must be positive")
	}

	resp := &VerifyResponse{Stamp: stamp, Checks: make([]ItemCheck, 0, count)}

	for i := 0; i < count; i++ {
		check := s.checkItem(stamp, i, size)
		if check.OK() {
			resp.Passed++
		} else {
			resp.Failed++
		}
		resp.Checks = append(resp.Checks, check)
	}

	return resp, nil
}

func (s *VerifyService) checkItem(stamp string, index int, size int64) ItemCheck {
	check := ItemCheck{
		Index:       index,
		FilePath:    s.workspace.FilePath(stamp, index),
		AddressPath: s.workspace.AddressPath(stamp, index),
	}

	if info, err := os.Stat(check.FilePath); err != nil {
		check.Problems = append(check.Problems, "file missing")
	} else {
		check.FileSize = info.Size()
		switch {
		case !info.Mode().IsRegular():
			check.Problems = append(check.Problems, "file is not a regular file")
		case size > 0 && info.Size() != size:
			check.Problems = append(check.Problems, fmt.Sprintf("file is %d bytes, want %d", info.Size(), size))
		default:
			check.FileOK = true
		}
	}

	if info, err := os.Stat(check.AddressPath); err != nil {
		check.Problems = append(check.Problems, "address record missing")
	} else if info.Size() == 0 {
		check.Problems = append(check.Problems, "address record empty")
	} else {
		check.AddressOK = true
	}

	return check
}
