package cmd

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/services"
)

func doneItem(index int, ok bool) domain.Item {
	item := domain.Item{Index: index, Generated: true}
	if ok {
		item.Uploaded = true
		item.XORURL = "safe://item"
		return item
	}
	item.Fail(domain.NewStepError(domain.UploadFailed, index, errors.New("exit status 1")))
	return item
}

// TestRunModelInitialization tests that the run model starts empty
func TestRunModelInitialization(t *testing.T) {
	m := newRunModel(21, nil)

	if m.total != 21 {
		t.Errorf("Expected total 21, got %d", m.total)
	}
	if m.current != 0 || m.failed != 0 {
		t.Errorf("Expected no progress, got current=%d failed=%d", m.current, m.failed)
	}
	if m.done {
		t.Error("Expected done to be false initially")
	}
	if m.Init() == nil {
		t.Error("Expected Init to start the spinner")
	}
}

// TestRunModelProgress tests that progress messages advance the view
func TestRunModelProgress(t *testing.T) {
	var model tea.Model = newRunModel(3, nil)

	model, _ = model.Update(runProgressMsg{Stage: services.StageUploading, Total: 3, Item: domain.Item{Index: 0, FilePath: "files/randomfile-x-0"}})
	if m := model.(runModel); m.uploading != "files/randomfile-x-0" {
		t.Errorf("Expected uploading path to be shown, got %q", m.uploading)
	}

	model, _ = model.Update(runProgressMsg{Stage: services.StageDone, Current: 1, Total: 3, Item: doneItem(0, true)})
	model, _ = model.Update(runProgressMsg{Stage: services.StageDone, Current: 2, Total: 3, Item: doneItem(1, false)})

	m := model.(runModel)
	if m.current != 2 {
		t.Errorf("Expected current 2, got %d", m.current)
	}
	if m.failed != 1 {
		t.Errorf("Expected 1 failure, got %d", m.failed)
	}
	if len(m.recent) != 2 {
		t.Errorf("Expected 2 recent lines, got %d", len(m.recent))
	}

	view := m.View()
	if !strings.Contains(view, "2/3") {
		t.Errorf("Expected view to show 2/3, got:\n%s", view)
	}
	if !strings.Contains(view, "1 failed") {
		t.Errorf("Expected view to show failure count, got:\n%s", view)
	}
}

// TestRunModelRecentIsBounded tests that old lines scroll off
func TestRunModelRecentIsBounded(t *testing.T) {
	var model tea.Model = newRunModel(20, nil)

	for i := 0; i < 20; i++ {
		model, _ = model.Update(runProgressMsg{Stage: services.StageDone, Current: i + 1, Total: 20, Item: doneItem(i, true)})
	}

	if got := len(model.(runModel).recent); got != maxRecentLines {
		t.Errorf("Expected %d recent lines, got %d", maxRecentLines, got)
	}
}

// TestRunModelCancel tests that ctrl+c cancels the run once
func TestRunModelCancel(t *testing.T) {
	calls := 0
	var model tea.Model = newRunModel(3, func() { calls++ })

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	if calls != 1 {
		t.Errorf("Expected cancel to be called once, got %d", calls)
	}
	if cmd != nil {
		t.Error("Expected the view to wait for the run to finish")
	}
	if !strings.Contains(model.View(), "Cancelling") {
		t.Error("Expected view to show cancelling state")
	}
}

// TestRunModelDone tests that the final message quits the program
func TestRunModelDone(t *testing.T) {
	var model tea.Model = newRunModel(1, nil)

	resp := &services.RunResponse{Total: 1, Succeeded: 1}
	model, cmd := model.Update(runDoneMsg{resp: resp})

	m := model.(runModel)
	if !m.done || m.resp != resp {
		t.Error("Expected model to hold the final response")
	}
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected quit message")
	}
	if m.View() != "" {
		t.Error("Expected empty view after completion")
	}
}

// TestRunModelWindowSize tests that the bar width follows the terminal
func TestRunModelWindowSize(t *testing.T) {
	var model tea.Model = newRunModel(1, nil)

	model, _ = model.Update(tea.WindowSizeMsg{Width: 50, Height: 20})
	if w := model.(runModel).bar.Width; w != 30 {
		t.Errorf("Expected bar width 30, got %d", w)
	}

	model, _ = model.Update(tea.WindowSizeMsg{Width: 200, Height: 20})
	if w := model.(runModel).bar.Width; w != 60 {
		t.Errorf("Expected bar width capped at 60, got %d", w)
	}
}
