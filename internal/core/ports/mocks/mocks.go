package mocks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/ports"
)

// --- MockSafeClient ---

// MockSafeClient is a mock implementation of the SafeClient interface for testing
type MockSafeClient struct {
	mu            sync.Mutex
	accountCalls  []ports.AccountRequest
	uploadCalls   []ports.UploadRequest
	accountErr    error
	uploadErr     error
	failUploadsOf map[string]bool
	secretKey     string
}

// NewMockSafeClient creates a new mock safe client
func NewMockSafeClient() *MockSafeClient {
	return &MockSafeClient{
		failUploadsOf: make(map[string]bool),
		secretKey:     "mock-secret-key",
	}
}

// CreateAccount records the request and returns a fake account
func (m *MockSafeClient) CreateAccount(ctx context.Context, req ports.AccountRequest) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountCalls = append(m.accountCalls, req)
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	return &domain.Account{
		XORURL:    "safe://mock-account",
		PublicKey: "mock-public-key",
		SecretKey: m.secretKey,
		Preload:   req.Preload,
		Default:   req.PersistAsDefault,
	}, nil
}

// Upload records the request and returns safe CLI shaped JSON
func (m *MockSafeClient) Upload(ctx context.Context, req ports.UploadRequest) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCalls = append(m.uploadCalls, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	if m.failUploadsOf[filepath.Base(req.Path)] {
		return nil, fmt.Errorf("upload failed for %s", req.Path)
	}
	return []byte(fmt.Sprintf(`["safe://mock-%s",[]]`, filepath.Base(req.Path))), nil
}

// SetAccountError makes CreateAccount fail
func (m *MockSafeClient) SetAccountError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountErr = err
}

// SetUploadError makes every Upload fail
func (m *MockSafeClient) SetUploadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErr = err
}

// FailUploadOf makes uploads of the named file fail
func (m *MockSafeClient) FailUploadOf(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUploadsOf[name] = true
}

// GetAccountCalls returns the recorded account requests
func (m *MockSafeClient) GetAccountCalls() []ports.AccountRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ports.AccountRequest, len(m.accountCalls))
	copy(calls, m.accountCalls)
	return calls
}

// GetUploadCalls returns the recorded upload requests
func (m *MockSafeClient) GetUploadCalls() []ports.UploadRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ports.UploadRequest, len(m.uploadCalls))
	copy(calls, m.uploadCalls)
	return calls
}

// --- MockFileGenerator ---

// MockFileGenerator writes zero-filled files of the requested size
type MockFileGenerator struct {
	mu         sync.Mutex
	calls      []string
	shouldFail bool
	failError  error
	failOn     map[string]bool
}

func NewMockFileGenerator() *MockFileGenerator {
	return &MockFileGenerator{
		failOn: make(map[string]bool),
	}
}

func (m *MockFileGenerator) Generate(ctx context.Context, path string, size int64) error {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	fail := m.shouldFail || m.failOn[filepath.Base(path)]
	failErr := m.failError
	m.mu.Unlock()

	if fail {
		if failErr != nil {
			return failErr
		}
		return fmt.Errorf("generate failed for %s", path)
	}

	return os.WriteFile(path, make([]byte, size), 0644)
}

func (m *MockFileGenerator) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

// FailOn makes generation of the named file fail
func (m *MockFileGenerator) FailOn(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[name] = true
}

func (m *MockFileGenerator) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// --- MockBatchRepository ---

// MockBatchRepository keeps batches in memory
type MockBatchRepository struct {
	mu      sync.RWMutex
	batches map[string]domain.Batch
	saveErr error
}

func NewMockBatchRepository() *MockBatchRepository {
	return &MockBatchRepository{
		batches: make(map[string]domain.Batch),
	}
}

func (m *MockBatchRepository) Save(ctx context.Context, batch *domain.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.batches[batch.ID] = *batch
	return nil
}

func (m *MockBatchRepository) Get(ctx context.Context, id string) (*domain.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, b := range m.batches {
		if key == id || strings.HasPrefix(key, id) {
			batch := b
			return &batch, nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", id)
}

func (m *MockBatchRepository) List(ctx context.Context) ([]domain.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	batches := make([]domain.Batch, 0, len(m.batches))
	for _, b := range m.batches {
		batches = append(batches, b)
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].StartedAt.After(batches[j].StartedAt)
	})
	return batches, nil
}

func (m *MockBatchRepository) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
