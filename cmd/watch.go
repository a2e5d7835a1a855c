package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/pkg/ui"
	"github.com/maidsafe/safeload/pkg/workspace"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Upload files as they appear in the files directory",
	Long: `Watch the files directory and upload every new randomfile-<stamp>-<i>.

Each upload writes its address record next to the others, exactly as a
batch would. Writes are debounced so a file is only uploaded once it has
stopped changing.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond, "How long a file must be unchanged before upload")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := getContext(cmd)

	if err := appWorkspace.Initialize(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(appWorkspace.FilesPath); err != nil {
		return fmt.Errorf("failed to watch files directory: %w", err)
	}

	fmt.Println(ui.FormatRocket("Watching for new files..."))
	fmt.Println(ui.FormatMuted("Watching: " + appWorkspace.FilesPath))
	fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
	fmt.Println()

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		wg      sync.WaitGroup
	)

	upload := func(path string) {
		defer wg.Done()

		if ctx.Err() != nil {
			return
		}

		item, err := runService.UploadFile(ctx, path)
		if err != nil {
			fmt.Println(ui.FormatError(filepath.Base(path) + ": " + err.Error()))
			return
		}
		fmt.Println(ui.FormatSuccess(filepath.Base(path) + " " + item.XORURL))
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isWatchedFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			mu.Lock()
			if timer, exists := pending[event.Name]; exists {
				if timer.Stop() {
					wg.Done()
				}
			}
			wg.Add(1)
			name := event.Name
			var timer *time.Timer
			timer = time.AfterFunc(watchSettle, func() {
				mu.Lock()
				if pending[name] == timer {
					delete(pending, name)
				}
				mu.Unlock()
				upload(name)
			})
			pending[name] = timer
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)

		case <-ctx.Done():
			mu.Lock()
			for path, timer := range pending {
				if timer.Stop() {
					wg.Done()
				}
				delete(pending, path)
			}
			mu.Unlock()
			wg.Wait()

			fmt.Println()
			fmt.Println(ui.FormatMuted("Watcher stopped"))
			return nil
		}
	}
}

// isWatchedFile reports whether a path looks like a generated file
func isWatchedFile(path string) bool {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, workspace.FilePrefix) {
		return false
	}
	_, _, ok := workspace.ParseName(base)
	return ok
}
