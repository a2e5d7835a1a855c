package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/maidsafe/safeload/internal/adapters/safecli"
	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/ports"
	"github.com/maidsafe/safeload/pkg/config"
	"github.com/maidsafe/safeload/pkg/workspace"
)

// ErrEmptyUploadOutput is returned when the CLI exits cleanly but prints nothing
var ErrEmptyUploadOutput = errors.New("upload produced no output")

// errSkipped marks items that were never attempted
var errSkipped = errors.New("skipped after run aborted")

// RunService generates random files and uploads them one batch at a time
type RunService struct {
	client    ports.SafeClient
	generator ports.FileGenerator
	batches   ports.BatchRepository
	workspace *workspace.Workspace
	config    *config.Config
	now       func() time.Time
}

// NewRunService creates a new run service
func NewRunService(client ports.SafeClient, generator ports.FileGenerator, batches ports.BatchRepository, ws *workspace.Workspace, cfg *config.Config) *RunService {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &RunService{
		client:    client,
		generator: generator,
		batches:   batches,
		workspace: ws,
		config:    cfg,
		now:       time.Now,
	}
}

// RunRequest represents a request to run one batch. Zero values fall back to the config.
type RunRequest struct {
	Count         int
	Size          int64
	Preload       string
	Workers       int
	UploadTimeout time.Duration
	SkipAccount   bool

	// Stamp overrides the timestamp embedded in file names
	Stamp string
}

// RunResponse represents the outcome of a batch
type RunResponse struct {
	Batch     *domain.Batch
	Total     int
	Succeeded int
	Failed    int
	Aborted   bool

	// ManifestErr is set when the batch ran but its manifest could not be saved
	ManifestErr error
}

// Progress stages
const (
	StageUploading = "uploading"
	StageDone      = "done"
)

// RunProgress represents the progress of a batch
type RunProgress struct {
	Stage   string
	Current int // Items finished so far
	Total   int
	Item    domain.Item
}

// Execute runs a batch and returns the per-item outcomes
func (s *RunService) Execute(ctx context.Context, req RunRequest) (*RunResponse, error) {
	return s.run(ctx, req, nil)
}

// ExecuteWithProgress runs a batch and reports progress. progressChan is closed on return.
func (s *RunService) ExecuteWithProgress(ctx context.Context, req RunRequest, progressChan chan<- RunProgress) (*RunResponse, error) {
	defer close(progressChan)
	return s.run(ctx, req, progressChan)
}

// resolve fills request defaults from the config
func (s *RunService) resolve(req RunRequest) RunRequest {
	if req.Count <= 0 {
		req.Count = s.config.FileCount
	}
	if req.Size <= 0 {
		req.Size = s.config.FileSize
	}
	if req.Preload == "" {
		req.Preload = s.config.PreloadAmount
	}
	if req.Workers <= 0 {
		req.Workers = s.config.Workers
	}
	if req.Workers <= 0 {
		req.Workers = 1
	}
	if req.UploadTimeout <= 0 {
		req.UploadTimeout = s.config.UploadTimeout
	}
	if !req.SkipAccount {
		req.SkipAccount = s.config.SkipAccount
	}
	return req
}

func (s *RunService) run(ctx context.Context, req RunRequest, progressChan chan<- RunProgress) (*RunResponse, error) {
	req = s.resolve(req)

	batch := domain.NewBatch(s.now(), s.config.TimestampFormat, req.Size)
	if req.Stamp != "" {
		batch.Stamp = req.Stamp
	}

	slog.Info("Starting run",
		"run_id", batch.ID,
		"stamp", batch.Stamp,
		"count", req.Count,
		"size", req.Size,
		"workers", req.Workers,
	)

	// 1. Account setup
	if !req.SkipAccount {
		account, err := s.client.CreateAccount(ctx, ports.AccountRequest{
			Preload:          req.Preload,
			PersistAsDefault: s.config.PersistAsDefault,
		})
		if err != nil {
			stepErr := domain.NewStepError(domain.AccountCreationFailed, domain.NoIndex, err)
			if s.config.ShouldAbort(config.StepAccount) {
				return s.abort(ctx, batch, stepErr)
			}
			slog.Warn("Account creation failed, continuing", "error", err)
			batch.SetupFailed = true
			batch.Error = stepErr.Error()
		} else {
			batch.Account = account
		}
	}

	// 2. Directory preparation
	if err := s.workspace.Initialize(); err != nil {
		stepErr := domain.NewStepError(domain.DirectoryCreationFailed, domain.NoIndex, err)
		if s.config.ShouldAbort(config.StepDirectory) {
			return s.abort(ctx, batch, stepErr)
		}
		slog.Warn("Directory preparation failed, continuing", "error", err)
		batch.SetupFailed = true
		batch.Error = stepErr.Error()
	}

	// 3. Generate then upload
	payWith := ""
	if s.config.ExplicitCredentials && batch.Account != nil {
		payWith = batch.Account.SecretKey
	}

	batch.Items = s.processAll(ctx, batch.Stamp, req, payWith, progressChan)

	return s.finish(ctx, batch)
}

// processAll runs every iteration through a worker pool. One worker keeps it strictly sequential.
func (s *RunService) processAll(ctx context.Context, stamp string, req RunRequest, payWith string, progressChan chan<- RunProgress) []domain.Item {
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	jobs := make(chan int, req.Count)
	results := make(chan domain.Item, req.Count)

	var wg sync.WaitGroup
	for i := 0; i < req.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				item := s.processItem(runCtx, stamp, index, req, payWith, progressChan)
				if item.Err != nil && !item.Skipped && s.abortsOn(item.Err.Kind) {
					slog.Error("Aborting run", "index", index, "error", item.Err)
					cancelRun()
				}
				results <- item
			}
		}()
	}

	for i := 0; i < req.Count; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	items := make([]domain.Item, 0, req.Count)
	for item := range results {
		items = append(items, item)
		if progressChan != nil {
			progressChan <- RunProgress{
				Stage:   StageDone,
				Current: len(items),
				Total:   req.Count,
				Item:    item,
			}
		}
	}

	return items
}

func (s *RunService) abortsOn(kind domain.ErrorKind) bool {
	switch kind {
	case domain.FileGenerationFailed:
		return s.config.ShouldAbort(config.StepGenerate)
	case domain.UploadFailed:
		return s.config.ShouldAbort(config.StepUpload)
	default:
		return true
	}
}

// processItem generates one file and uploads it
func (s *RunService) processItem(ctx context.Context, stamp string, index int, req RunRequest, payWith string, progressChan chan<- RunProgress) domain.Item {
	item := domain.Item{
		Index:       index,
		FilePath:    s.workspace.FilePath(stamp, index),
		AddressPath: s.workspace.AddressPath(stamp, index),
		Size:        req.Size,
	}

	if ctx.Err() != nil {
		item.Skipped = true
		item.Fail(domain.NewStepError(domain.FileGenerationFailed, index, errSkipped))
		return item
	}

	if err := s.generator.Generate(ctx, item.FilePath, req.Size); err != nil {
		item.Fail(domain.NewStepError(domain.FileGenerationFailed, index, err))
		return item
	}
	item.Generated = true

	if progressChan != nil {
		progressChan <- RunProgress{Stage: StageUploading, Total: req.Count, Item: item}
	}

	s.upload(ctx, &item, payWith, req.UploadTimeout)
	return item
}

// upload sends one generated file and writes the tool's output verbatim to its address record
func (s *RunService) upload(ctx context.Context, item *domain.Item, payWith string, timeout time.Duration) {
	uploadCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.client.Upload(uploadCtx, ports.UploadRequest{Path: item.FilePath, PayWith: payWith})
	item.Duration = time.Since(start)

	if err == nil && len(out) == 0 {
		err = ErrEmptyUploadOutput
	}
	if err != nil {
		slog.Warn("Upload failed", "index", item.Index, "file", item.FilePath, "error", err)
		item.Fail(domain.NewStepError(domain.UploadFailed, item.Index, err))
		return
	}

	if err := os.WriteFile(item.AddressPath, out, 0644); err != nil {
		item.Fail(domain.NewStepError(domain.UploadFailed, item.Index, fmt.Errorf("failed to write address record: %w", err)))
		return
	}

	item.Uploaded = true
	item.XORURL = safecli.ParseXORURL(out)

	slog.Debug("Uploaded file",
		"index", item.Index,
		"file", item.FilePath,
		"xorurl", item.XORURL,
		"duration", item.Duration,
	)
}

// UploadFile uploads an existing file outside of a batch, writing its address record
// next to the others. The file must live in the files directory and follow the naming scheme.
// No account is created here, so the upload always pays with the CLI's default identity.
func (s *RunService) UploadFile(ctx context.Context, path string) (*domain.Item, error) {
	_, index, ok := workspace.ParseName(path)
	addressPath, isBlob := s.workspace.AddressPathFor(path)
	if !ok || !isBlob {
		return nil, fmt.Errorf("not a generated file name: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	item := &domain.Item{
		Index:       index,
		FilePath:    path,
		AddressPath: addressPath,
		Size:        info.Size(),
		Generated:   true,
	}

	if s.config.ExplicitCredentials {
		slog.Warn("Uploading outside a run pays with the CLI's default identity", "file", path)
	}

	s.upload(ctx, item, "", s.config.UploadTimeout)
	if item.Err != nil {
		return item, item.Err
	}
	return item, nil
}

// abort finishes a batch that stopped before any iteration ran
func (s *RunService) abort(ctx context.Context, batch *domain.Batch, stepErr *domain.StepError) (*RunResponse, error) {
	slog.Error("Aborting run", "run_id", batch.ID, "error", stepErr)
	batch.Aborted = true
	batch.Error = stepErr.Error()
	resp, _ := s.finish(ctx, batch)
	return resp, stepErr
}

// finish stamps, sorts, counts and persists the batch
func (s *RunService) finish(ctx context.Context, batch *domain.Batch) (*RunResponse, error) {
	batch.FinishedAt = s.now()
	batch.SortItems()

	for _, item := range batch.Items {
		if item.Err != nil && !item.Skipped && s.abortsOn(item.Err.Kind) {
			batch.Aborted = true
			if batch.Error == "" {
				batch.Error = item.Err.Error()
			}
		}
	}

	succeeded, failed := batch.Counts()
	resp := &RunResponse{
		Batch:     batch,
		Total:     len(batch.Items),
		Succeeded: succeeded,
		Failed:    failed,
		Aborted:   batch.Aborted,
	}

	if s.batches != nil {
		// Manifest errors are reported alongside the results, not instead of them
		if err := s.batches.Save(context.WithoutCancel(ctx), batch); err != nil {
			slog.Warn("Failed to save run manifest", "run_id", batch.ID, "error", err)
			resp.ManifestErr = err
		}
	}

	slog.Info("Run finished",
		"run_id", batch.ID,
		"succeeded", succeeded,
		"failed", failed,
		"aborted", batch.Aborted,
		"duration", batch.Duration(),
	)

	switch {
	case batch.Aborted || failed > 0:
		return resp, fmt.Errorf("%w: %d of %d items failed", domain.ErrRunFailed, failed, len(batch.Items))
	case batch.SetupFailed:
		return resp, fmt.Errorf("%w: %s", domain.ErrRunFailed, batch.Error)
	}
	return resp, nil
}
