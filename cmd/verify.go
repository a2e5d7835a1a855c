package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/core/services"
	"github.com/maidsafe/safeload/pkg/ui"
)

var (
	verifyStamp string
	verifyCount int
	verifySize  int64
)

var verifyCmd = &cobra.Command{
	Use:   "verify [run-id]",
	Short: "Check that every file and address record of a run is in place",
	Long: `Verify the artifacts of a run.

Every file must exist with exactly the configured size, and every address
record must exist and be non-empty. With no run id the latest run is used.
Runs made before manifests existed can be checked with --stamp.

Examples:
  safeload verify
  safeload verify 3f2a9c1b
  safeload verify --stamp 12:00:00 --count 21`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyStamp, "stamp", "", "Timestamp embedded in the file names")
	verifyCmd.Flags().IntVarP(&verifyCount, "count", "n", 0, "Number of items to check")
	verifyCmd.Flags().Int64VarP(&verifySize, "size", "s", 0, "Expected file size in bytes")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := getContext(cmd)

	req := services.VerifyRequest{
		Stamp: verifyStamp,
		Count: verifyCount,
		Size:  verifySize,
	}

	switch {
	case len(args) == 1:
		req.RunID = args[0]
	case verifyStamp != "":
		if req.Count <= 0 {
			req.Count = appConfig.FileCount
		}
		if req.Size <= 0 {
			req.Size = appConfig.FileSize
		}
	default:
		batches, err := batchRepo.List(ctx)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			fmt.Println(ui.FormatWarning("No runs recorded yet"))
			fmt.Println(ui.FormatInfo("Run 'safeload run' or pass --stamp"))
			return nil
		}
		req.RunID = batches[0].ID
	}

	resp, err := verifyService.Execute(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatTitle("Verifying " + resp.Stamp))
	fmt.Println()

	table := ui.NewTable([]ui.TableColumn{
		{Header: "#", Align: "right"},
		{Header: "File"},
		{Header: "Size", Align: "right"},
		{Header: "Address"},
		{Header: "Problems"},
	})
	for _, check := range resp.Checks {
		table.AddRow([]string{
			strconv.Itoa(check.Index),
			ui.FormatStatus(check.FileOK, "ok", "bad"),
			ui.FormatBytes(check.FileSize),
			ui.FormatStatus(check.AddressOK, "ok", "bad"),
			ui.StyleMuted.Render(strings.Join(check.Problems, "; ")),
		})
	}
	fmt.Println(table.Render())
	fmt.Println()

	if resp.Failed > 0 {
		return fmt.Errorf("%d of %d items failed verification", resp.Failed, len(resp.Checks))
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("All %d items verified", resp.Passed)))
	return nil
}
