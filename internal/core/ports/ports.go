package ports

import (
	"context"

	"github.com/maidsafe/safeload/internal/core/domain"
)

// AccountRequest describes a test account to create on the network
type AccountRequest struct {
	// Preload is the amount of test credits, passed verbatim to the CLI
	Preload string

	// PersistAsDefault stores the new keys as the CLI's default identity
	PersistAsDefault bool
}

// UploadRequest describes a single file upload
type UploadRequest struct {
	Path string

	// PayWith is the secret key paying for the upload. Empty uses the CLI default.
	PayWith string
}

// SafeClient defines the port for the external storage network client
type SafeClient interface {
	// CreateAccount creates a key pair preloaded with test credits
	CreateAccount(ctx context.Context, req AccountRequest) (*domain.Account, error)

	// Upload puts a file on the network and returns the tool's JSON output verbatim
	Upload(ctx context.Context, req UploadRequest) ([]byte, error)
}

// FileGenerator defines the port for producing random test files
type FileGenerator interface {
	// Generate writes exactly size random bytes to path, replacing any existing file
	Generate(ctx context.Context, path string, size int64) error
}

// BatchRepository defines the port for run manifest persistence
type BatchRepository interface {
	// Save persists a batch manifest
	Save(ctx context.Context, batch *domain.Batch) error

	// Get retrieves a batch by ID or ID prefix
	Get(ctx context.Context, id string) (*domain.Batch, error)

	// List returns all batches, newest first
	List(ctx context.Context) ([]domain.Batch, error)
}
