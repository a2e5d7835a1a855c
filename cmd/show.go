package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/core/services"
	"github.com/maidsafe/safeload/pkg/ui"
)

var (
	showCopy  bool
	showStamp string
)

var showCmd = &cobra.Command{
	Use:   "show [stamp-index]",
	Short: "Print an address record",
	Long: `Print the JSON the network returned for one upload.

The record can be named as "data-address-<stamp>-<i>" or just "<stamp>-<i>".
With no argument, pick one interactively.

Examples:
  safeload show 12:00:00-3
  safeload show --copy
  safeload show --stamp 12:00:00`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVarP(&showCopy, "copy", "c", false, "Copy the XOR-URL to the clipboard")
	showCmd.Flags().StringVar(&showStamp, "stamp", "", "Only offer records from this stamp")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := getContext(cmd)

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		resp, err := addressService.List(ctx, services.AddressListRequest{Stamp: showStamp})
		if err != nil {
			return err
		}
		if resp.Total == 0 {
			fmt.Println(ui.FormatWarning("No address records found"))
			return nil
		}

		picked, err := pickAddress(resp.Records)
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil
		}
		if err != nil {
			return err
		}
		name = picked.Name
	}

	record, data, err := addressService.Get(ctx, name)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatTitle(record.Name))
	fmt.Println(ui.RenderKeyValue("XOR-URL", record.XORURL))
	fmt.Println(ui.RenderKeyValue("Modified", record.ModTime.Format("2006-01-02 15:04:05")))
	fmt.Println()
	fmt.Println(string(data))

	if showCopy {
		if record.XORURL == "" {
			return fmt.Errorf("no XOR-URL found in %s", record.Name)
		}
		if err := clipboard.WriteAll(record.XORURL); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Println(ui.FormatSuccess("XOR-URL copied to clipboard"))
	}

	return nil
}

// pickAddress lets the user fuzzy-search address records, newest last
func pickAddress(records []services.AddressRecord) (*services.AddressRecord, error) {
	idx, err := fuzzyfinder.Find(
		records,
		func(i int) string { return records[i].Name },
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			data, err := os.ReadFile(records[i].Path)
			if err != nil {
				return err.Error()
			}
			return fmt.Sprintf("Stamp: %s\nIndex: %d\n\n%s",
				records[i].Stamp, records[i].Index, string(data))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &records[idx], nil
}
