package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/pkg/ui"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:     "runs",
	Aliases: []string{"ls"},
	Short:   "List past runs (alias: ls)",
	RunE:    runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "l", 20, "Maximum number of runs to show (0 for all)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	batches, err := batchRepo.List(getContext(cmd))
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		fmt.Println(ui.FormatWarning("No runs recorded yet"))
		return nil
	}

	if runsLimit > 0 && len(batches) > runsLimit {
		batches = batches[:runsLimit]
	}

	table := ui.NewTable([]ui.TableColumn{
		{Header: "Run"},
		{Header: "Started"},
		{Header: "Stamp"},
		{Header: "Items", Align: "right"},
		{Header: "OK", Align: "right"},
		{Header: "Failed", Align: "right"},
		{Header: "Duration", Align: "right"},
		{Header: "Status"},
	})

	for _, b := range batches {
		ok, failed := b.Counts()

		status := ui.FormatStatus(!b.Failed(), "ok", "failed")
		if b.Aborted {
			status = ui.StyleError.Render("aborted")
		}

		table.AddRow([]string{
			b.ShortID(),
			b.StartedAt.Format("2006-01-02 15:04"),
			b.Stamp,
			strconv.Itoa(len(b.Items)),
			strconv.Itoa(ok),
			strconv.Itoa(failed),
			ui.FormatDuration(b.Duration()),
			status,
		})
	}

	fmt.Println(table.Render())
	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d run(s)", len(batches))))
	return nil
}
