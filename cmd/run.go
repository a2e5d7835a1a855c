package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/core/services"
	"github.com/maidsafe/safeload/pkg/ui"
)

var (
	runCount       int
	runSize        int64
	runPreload     string
	runWorkers     int
	runSkipAccount bool
	runTimeout     time.Duration
	runTUI         bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create a test account then generate and upload random files",
	Long: `Run one upload batch.

A test account preloaded with credits is created first, then the files and
addresses directories are prepared. Each iteration writes a random file to
files/randomfile-<time>-<i> and uploads it, saving the network's JSON reply
to addresses/data-address-<time>-<i>.

The batch runs 21 iterations (0 through 20) unless --count says otherwise.
The command exits non-zero when any step failed.

Examples:
  safeload run
  safeload run --count 5 --size 4096
  safeload run --workers 4 --timeout 2m
  safeload run --skip-account --tui`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runCount, "count", "n", 0, "Number of files to upload (default from config)")
	runCmd.Flags().Int64VarP(&runSize, "size", "s", 0, "Size of each file in bytes (default from config)")
	runCmd.Flags().StringVar(&runPreload, "preload", "", "Test credits to preload the account with")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "j", 0, "Number of concurrent uploads")
	runCmd.Flags().BoolVar(&runSkipAccount, "skip-account", false, "Reuse the existing identity instead of creating an account")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Per-upload timeout (0 means no limit)")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show an interactive progress view")
}

func buildRunRequest() services.RunRequest {
	return services.RunRequest{
		Count:         runCount,
		Size:          runSize,
		Preload:       runPreload,
		Workers:       runWorkers,
		UploadTimeout: runTimeout,
		SkipAccount:   runSkipAccount,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	if runTUI {
		return runBatchTUI(cmd)
	}

	ctx := getContext(cmd)
	req := buildRunRequest()

	total := req.Count
	if total <= 0 {
		total = appConfig.FileCount
	}

	fmt.Println(ui.FormatRocket("Starting upload batch..."))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Workspace", appWorkspace.RootPath))
	fmt.Println(ui.RenderKeyValue("Files", strconv.Itoa(total)))
	fmt.Println()

	progressChan := make(chan services.RunProgress, total)
	resultChan := make(chan *services.RunResponse, 1)
	errorChan := make(chan error, 1)

	go func() {
		resp, err := runService.ExecuteWithProgress(ctx, req, progressChan)
		resultChan <- resp
		errorChan <- err
	}()

	bar := ui.NewProgressBar(30)
	for p := range progressChan {
		printProgress(bar, p)
	}

	resp := <-resultChan
	err := <-errorChan

	fmt.Println()
	printRunSummary(resp)

	return err
}

// printProgress prints one line per progress event
func printProgress(bar progress.Model, p services.RunProgress) {
	name := fmt.Sprintf("#%d", p.Item.Index)

	switch p.Stage {
	case services.StageUploading:
		fmt.Println(ui.FormatUpload(fmt.Sprintf("Uploading %s %s", name, ui.StyleMuted.Render(p.Item.FilePath))))
	case services.StageDone:
		var status string
		switch {
		case p.Item.Succeeded():
			status = ui.FormatSuccess(name + " " + p.Item.XORURL)
		case p.Item.Skipped:
			status = ui.FormatSkipped(name + " skipped")
		default:
			status = ui.FormatError(name + " " + p.Item.Error)
		}

		fmt.Printf("%s [%d/%d] %s\n", ui.RenderProgress(bar, p.Current, p.Total), p.Current, p.Total, status)
	}
}

// printRunSummary prints the outcome of a batch
func printRunSummary(resp *services.RunResponse) {
	if resp == nil {
		return
	}
	batch := resp.Batch

	switch {
	case resp.Aborted:
		fmt.Println(ui.FormatError("Batch aborted"))
	case batch.Failed():
		fmt.Println(ui.FormatWarning("Batch completed with failures"))
	default:
		fmt.Println(ui.FormatSuccess("Batch completed!"))
	}
	fmt.Println()

	fmt.Println(ui.RenderKeyValue("Run", batch.ShortID()))
	fmt.Println(ui.RenderKeyValue("Stamp", batch.Stamp))
	if batch.Account != nil {
		fmt.Println(ui.RenderKeyValue("Account", batch.Account.XORURL))
	}
	fmt.Println(ui.RenderKeyValue("Total", strconv.Itoa(resp.Total)))
	fmt.Println(ui.RenderKeyValue("Succeeded", ui.StyleSuccess.Render(strconv.Itoa(resp.Succeeded))))
	if resp.Failed > 0 {
		fmt.Println(ui.RenderKeyValue("Failed", ui.StyleError.Render(strconv.Itoa(resp.Failed))))
	}
	fmt.Println(ui.RenderKeyValue("Duration", ui.FormatDuration(batch.Duration())))

	if batch.Error != "" {
		fmt.Println()
		fmt.Println(ui.FormatMuted("  " + batch.Error))
	}

	if resp.Failed > 0 {
		fmt.Println()
		fmt.Println(ui.FormatWarning("Failed items:"))
		for _, item := range batch.Items {
			if !item.Succeeded() && !item.Skipped {
				fmt.Println(ui.FormatMuted(fmt.Sprintf("  • #%d: %s", item.Index, item.Error)))
			}
		}
	}

	if resp.ManifestErr != nil {
		fmt.Println()
		fmt.Println(ui.FormatWarning("Run manifest not saved: " + resp.ManifestErr.Error()))
	}
}
