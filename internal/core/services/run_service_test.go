package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/ports/mocks"
	"github.com/maidsafe/safeload/pkg/config"
	"github.com/maidsafe/safeload/pkg/workspace"
)

type runFixture struct {
	svc       *RunService
	client    *mocks.MockSafeClient
	generator *mocks.MockFileGenerator
	batches   *mocks.MockBatchRepository
	workspace *workspace.Workspace
	config    *config.Config
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()

	ws, err := workspace.New(t.TempDir(), workspace.DefaultLayout())
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.FileSize = 1024

	f := &runFixture{
		client:    mocks.NewMockSafeClient(),
		generator: mocks.NewMockFileGenerator(),
		batches:   mocks.NewMockBatchRepository(),
		workspace: ws,
		config:    cfg,
	}
	f.svc = NewRunService(f.client, f.generator, f.batches, ws, cfg)
	f.svc.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestRunService_Execute_Success(t *testing.T) {
	f := newRunFixture(t)

	resp, err := f.svc.Execute(context.Background(), RunRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Total != 21 || resp.Succeeded != 21 || resp.Failed != 0 {
		t.Errorf("expected 21/21 succeeded, got total=%d succeeded=%d failed=%d",
			resp.Total, resp.Succeeded, resp.Failed)
	}

	if resp.Batch.Stamp != "12:00:00" {
		t.Errorf("expected stamp 12:00:00, got %q", resp.Batch.Stamp)
	}

	// Account created once with the literal preload amount
	accountCalls := f.client.GetAccountCalls()
	if len(accountCalls) != 1 {
		t.Fatalf("expected 1 account call, got %d", len(accountCalls))
	}
	if accountCalls[0].Preload != "1000000" || !accountCalls[0].PersistAsDefault {
		t.Errorf("unexpected account request: %+v", accountCalls[0])
	}

	for i := 0; i <= 20; i++ {
		file := f.workspace.FilePath("12:00:00", i)
		info, err := os.Stat(file)
		if err != nil {
			t.Fatalf("file %d missing: %v", i, err)
		}
		if info.Size() != 1024 {
			t.Errorf("file %d has size %d, want 1024", i, info.Size())
		}
		if !strings.HasSuffix(file, fmt.Sprintf("randomfile-12:00:00-%d", i)) {
			t.Errorf("unexpected file name %s", file)
		}

		addr, err := os.ReadFile(f.workspace.AddressPath("12:00:00", i))
		if err != nil {
			t.Fatalf("address record %d missing: %v", i, err)
		}
		want := fmt.Sprintf(`["safe://mock-randomfile-12:00:00-%d",[]]`, i)
		if string(addr) != want {
			t.Errorf("address record %d = %q, want upload output verbatim %q", i, addr, want)
		}

		item := resp.Batch.Items[i]
		if item.Index != i || item.XORURL != "safe://mock-randomfile-12:00:00-"+fmt.Sprint(i) {
			t.Errorf("unexpected item %d: %+v", i, item)
		}
	}

	// Manifest persisted
	saved, err := f.batches.Get(context.Background(), resp.Batch.ID)
	if err != nil {
		t.Fatalf("manifest not saved: %v", err)
	}
	if len(saved.Items) != 21 {
		t.Errorf("expected 21 items in manifest, got %d", len(saved.Items))
	}
}

func TestRunService_Execute_SequentialOrder(t *testing.T) {
	f := newRunFixture(t)

	if _, err := f.svc.Execute(context.Background(), RunRequest{Count: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := f.client.GetUploadCalls()
	if len(calls) != 5 {
		t.Fatalf("expected 5 uploads, got %d", len(calls))
	}
	for i, call := range calls {
		if call.Path != f.workspace.FilePath("12:00:00", i) {
			t.Errorf("upload %d went to %s", i, call.Path)
		}
		if call.PayWith != "" {
			t.Error("uploads should use the CLI default identity unless explicit credentials are on")
		}
	}
}

func TestRunService_Execute_Idempotent(t *testing.T) {
	f := newRunFixture(t)

	if err := f.workspace.Initialize(); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Execute(context.Background(), RunRequest{Count: 2}); err != nil {
		t.Fatalf("run with existing directories failed: %v", err)
	}
}

func TestRunService_Execute_DistinctStampsKeepFiles(t *testing.T) {
	f := newRunFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Execute(ctx, RunRequest{Count: 3, Stamp: "12:00:00"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Execute(ctx, RunRequest{Count: 3, Stamp: "12:00:01"}); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(f.workspace.FilesPath)
	if len(entries) != 6 {
		t.Errorf("expected 6 files from two runs, got %d", len(entries))
	}
	entries, _ = os.ReadDir(f.workspace.AddressesPath)
	if len(entries) != 6 {
		t.Errorf("expected 6 address records from two runs, got %d", len(entries))
	}
}

func TestRunService_Execute_AccountFailureAborts(t *testing.T) {
	f := newRunFixture(t)
	f.client.SetAccountError(errors.New("exit status 1"))

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 3})
	if err == nil {
		t.Fatal("expected error when account creation fails")
	}
	if !domain.IsAccountCreationFailed(err) {
		t.Errorf("expected AccountCreationFailed, got %v", err)
	}
	if !resp.Aborted {
		t.Error("expected run to be aborted")
	}
	if len(f.generator.GetCalls()) != 0 {
		t.Error("no files should be generated after an aborted account setup")
	}
	if _, err := f.batches.Get(context.Background(), resp.Batch.ID); err != nil {
		t.Error("aborted runs should still be recorded")
	}
}

func TestRunService_Execute_AccountFailureContinue(t *testing.T) {
	f := newRunFixture(t)
	f.config.FailurePolicy[config.StepAccount] = config.PolicyContinue
	f.client.SetAccountError(errors.New("exit status 1"))

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 3})
	if !errors.Is(err, domain.ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed after a failed setup step, got %v", err)
	}
	if resp.Aborted {
		t.Error("run should continue past account failure")
	}
	if !resp.Batch.SetupFailed {
		t.Error("expected setup failure to be recorded on the batch")
	}
	if resp.Succeeded != 3 {
		t.Errorf("expected 3 uploads, got %d", resp.Succeeded)
	}
	if resp.Batch.Account != nil {
		t.Error("expected no account on the batch")
	}
	if !strings.Contains(resp.Batch.Error, "account creation failed") {
		t.Errorf("expected account failure to be recorded, got %q", resp.Batch.Error)
	}
}

func TestRunService_Execute_SkipAccount(t *testing.T) {
	f := newRunFixture(t)

	if _, err := f.svc.Execute(context.Background(), RunRequest{Count: 1, SkipAccount: true}); err != nil {
		t.Fatal(err)
	}
	if len(f.client.GetAccountCalls()) != 0 {
		t.Error("account should not be created when skipped")
	}
}

func TestRunService_Execute_DirectoryFailure(t *testing.T) {
	f := newRunFixture(t)

	// A regular file where the files directory should go
	if err := os.WriteFile(f.workspace.FilesPath, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 2})
	if !domain.IsDirectoryCreationFailed(err) {
		t.Fatalf("expected DirectoryCreationFailed, got %v", err)
	}
	if !resp.Aborted || len(resp.Batch.Items) != 0 {
		t.Errorf("expected aborted run without items, got %+v", resp)
	}
}

func TestRunService_Execute_DirectoryFailureContinue(t *testing.T) {
	f := newRunFixture(t)
	f.config.FailurePolicy[config.StepDirectory] = config.PolicyContinue

	// Only the runs directory is blocked, so items can still be written
	if err := os.WriteFile(f.workspace.RunsPath, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 3})
	if !errors.Is(err, domain.ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed after a failed setup step, got %v", err)
	}
	if resp.Aborted {
		t.Error("run should continue past directory failure")
	}
	if resp.Succeeded != 3 || resp.Failed != 0 {
		t.Errorf("expected 3 uploads and no item failures, got succeeded=%d failed=%d", resp.Succeeded, resp.Failed)
	}
	if !resp.Batch.Failed() {
		t.Error("expected batch to report failure")
	}
	if !strings.Contains(resp.Batch.Error, "directory creation failed") {
		t.Errorf("expected directory failure to be recorded, got %q", resp.Batch.Error)
	}
}

func TestRunService_Execute_UploadFailureContinues(t *testing.T) {
	f := newRunFixture(t)
	f.client.FailUploadOf(workspace.FileName("12:00:00", 1))

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 3})
	if !errors.Is(err, domain.ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	if resp.Aborted {
		t.Error("upload failures continue by default")
	}
	if resp.Succeeded != 2 || resp.Failed != 1 {
		t.Errorf("expected 2 succeeded and 1 failed, got %d and %d", resp.Succeeded, resp.Failed)
	}

	failed := resp.Batch.Items[1]
	if failed.Err == nil || failed.Err.Kind != domain.UploadFailed {
		t.Errorf("expected item 1 to carry UploadFailed, got %+v", failed.Err)
	}
	if _, err := os.Stat(f.workspace.AddressPath("12:00:00", 1)); !os.IsNotExist(err) {
		t.Error("no address record should be written for a failed upload")
	}
	if _, err := os.Stat(f.workspace.AddressPath("12:00:00", 2)); err != nil {
		t.Error("later items should still be uploaded")
	}
}

func TestRunService_Execute_UploadFailureAborts(t *testing.T) {
	f := newRunFixture(t)
	f.config.FailurePolicy[config.StepUpload] = config.PolicyAbort
	f.client.FailUploadOf(workspace.FileName("12:00:00", 1))

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 5})
	if err == nil {
		t.Fatal("expected error")
	}
	if !resp.Aborted {
		t.Error("expected run to abort")
	}

	skipped := 0
	for _, item := range resp.Batch.Items {
		if item.Skipped {
			skipped++
		}
	}
	if skipped != 3 {
		t.Errorf("expected items 2..4 to be skipped, got %d skipped", skipped)
	}
	if len(f.client.GetUploadCalls()) != 2 {
		t.Errorf("expected uploads to stop after the failure, got %d calls", len(f.client.GetUploadCalls()))
	}
}

func TestRunService_Execute_GenerationFailure(t *testing.T) {
	f := newRunFixture(t)
	f.generator.FailOn(workspace.FileName("12:00:00", 0))

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 2})
	if err == nil {
		t.Fatal("expected error")
	}

	if !domain.IsFileGenerationFailed(resp.Batch.Items[0].Err) {
		t.Errorf("expected FileGenerationFailed, got %v", resp.Batch.Items[0].Err)
	}
	if len(f.client.GetUploadCalls()) != 1 {
		t.Errorf("a file that failed to generate must not be uploaded, got %d uploads", len(f.client.GetUploadCalls()))
	}
}

func TestRunService_Execute_ExplicitCredentials(t *testing.T) {
	f := newRunFixture(t)
	f.config.ExplicitCredentials = true

	if _, err := f.svc.Execute(context.Background(), RunRequest{Count: 2}); err != nil {
		t.Fatal(err)
	}

	for _, call := range f.client.GetUploadCalls() {
		if call.PayWith != "mock-secret-key" {
			t.Errorf("expected uploads to pay with the new account, got %q", call.PayWith)
		}
	}
}

func TestRunService_Execute_Workers(t *testing.T) {
	f := newRunFixture(t)

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 10, Workers: 4})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Succeeded != 10 {
		t.Errorf("expected 10 uploads, got %d", resp.Succeeded)
	}
	if !sort.SliceIsSorted(resp.Batch.Items, func(i, j int) bool {
		return resp.Batch.Items[i].Index < resp.Batch.Items[j].Index
	}) {
		t.Error("items should be sorted by index")
	}
}

func TestRunService_Execute_Cancelled(t *testing.T) {
	f := newRunFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := f.svc.Execute(ctx, RunRequest{Count: 3, SkipAccount: true})
	if err == nil {
		t.Fatal("expected error for a cancelled run")
	}
	if resp.Failed != 3 {
		t.Errorf("expected every item to fail, got %d", resp.Failed)
	}
	for _, item := range resp.Batch.Items {
		if !item.Skipped {
			t.Errorf("item %d should be skipped", item.Index)
		}
	}
}

func TestRunService_Execute_ManifestFailure(t *testing.T) {
	f := newRunFixture(t)
	f.batches.SetSaveError(errors.New("disk full"))

	resp, err := f.svc.Execute(context.Background(), RunRequest{Count: 1})
	if err != nil {
		t.Fatalf("manifest failure must not fail the run: %v", err)
	}
	if resp.ManifestErr == nil {
		t.Error("expected ManifestErr to be set")
	}
}

func TestRunService_ExecuteWithProgress(t *testing.T) {
	f := newRunFixture(t)
	count := 4

	progressChan := make(chan RunProgress, count*2)
	resp, err := f.svc.ExecuteWithProgress(context.Background(), RunRequest{Count: count}, progressChan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var uploading, done []RunProgress
	for p := range progressChan {
		switch p.Stage {
		case StageUploading:
			uploading = append(uploading, p)
		case StageDone:
			done = append(done, p)
		}
	}

	if len(uploading) != count || len(done) != count {
		t.Errorf("expected %d uploading and %d done updates, got %d and %d",
			count, count, len(uploading), len(done))
	}
	if done[len(done)-1].Current != count {
		t.Errorf("expected last update to report %d/%d", count, count)
	}
	if resp.Total != count {
		t.Errorf("expected Total=%d, got %d", count, resp.Total)
	}
}

func TestRunService_UploadFile(t *testing.T) {
	f := newRunFixture(t)
	if err := f.workspace.Initialize(); err != nil {
		t.Fatal(err)
	}

	path := f.workspace.FilePath("13:00:00", 7)
	if err := os.WriteFile(path, []byte("dropped in"), 0644); err != nil {
		t.Fatal(err)
	}

	item, err := f.svc.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if !item.Uploaded || item.Index != 7 {
		t.Errorf("unexpected item: %+v", item)
	}
	if _, err := os.Stat(f.workspace.AddressPath("13:00:00", 7)); err != nil {
		t.Errorf("expected address record to be written: %v", err)
	}

	if _, err := f.svc.UploadFile(context.Background(), f.workspace.FilesPath+"/notes.txt"); err == nil {
		t.Error("expected error for a file outside the naming scheme")
	}
}

func TestRunService_UploadFile_WarnsWithExplicitCredentials(t *testing.T) {
	f := newRunFixture(t)
	f.config.ExplicitCredentials = true
	if err := f.workspace.Initialize(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(previous)

	path := f.workspace.FilePath("13:00:00", 1)
	if err := os.WriteFile(path, []byte("dropped in"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UploadFile(context.Background(), path); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	calls := f.client.GetUploadCalls()
	if len(calls) != 1 || calls[0].PayWith != "" {
		t.Errorf("expected one upload with the default identity, got %+v", calls)
	}
	if !strings.Contains(buf.String(), "default identity") {
		t.Errorf("expected a warning about the default identity, got %q", buf.String())
	}
}
