package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/core/services"
	"github.com/maidsafe/safeload/pkg/ui"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Render an HTML chart of upload durations for a run",
	Long: `Render a bar chart of how long each upload of a run took.

With no run id the latest run is charted.

Examples:
  safeload report
  safeload report 3f2a9c1b --html run.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "html", "o", "report.html", "Output HTML file")
}

func runReport(cmd *cobra.Command, args []string) error {
	req := services.ReportRequest{}
	if len(args) == 1 {
		req.RunID = args[0]
	}

	if dir := filepath.Dir(reportOutput); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(reportOutput)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	resp, err := reportService.Execute(getContext(cmd), req, f)
	if err != nil {
		f.Close()
		os.Remove(reportOutput)
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Charted %d uploads of run %s", resp.Charted, resp.Batch.ShortID())))
	fmt.Println(ui.FormatMuted("  " + reportOutput))
	return nil
}
