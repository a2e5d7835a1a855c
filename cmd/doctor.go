package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/adapters/safecli"
	"github.com/maidsafe/safeload/pkg/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of your safeload setup",
	Long: `Diagnose issues with your safeload setup.

Checks for:
  - The safe CLI on PATH and its version
  - Workspace directories
  - Configuration file and failure policies`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatTitle("🏥 safeload doctor"))
	fmt.Println()

	failures := 0
	check := func(name string, fn func() error) {
		if !checkStep(name, fn) {
			failures++
		}
	}

	// 1. External tool
	check("safe CLI ("+appConfig.SafeBinary+")", func() error {
		if !safecli.IsAvailable(appConfig.SafeBinary) {
			return fmt.Errorf("not found in PATH")
		}
		return nil
	})

	check("safe CLI version", func() error {
		ctx, cancel := context.WithTimeout(getContext(cmd), 10*time.Second)
		defer cancel()

		version, err := safeClient.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(ui.FormatMuted("    " + version))
		return nil
	})

	// 2. Workspace
	for _, dir := range appWorkspace.OutputDirs() {
		check("Directory "+dir, func() error {
			info, err := os.Stat(dir)
			if os.IsNotExist(err) {
				return fmt.Errorf("missing (created on next run)")
			}
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("exists but is not a directory")
			}
			return nil
		})
	}

	// 3. Config
	check("Configuration file", func() error {
		if _, err := os.Stat(appConfigPath); os.IsNotExist(err) {
			return fmt.Errorf("missing at %s (using defaults)", appConfigPath)
		}
		return nil
	})

	check("Explicit credentials", func() error {
		if appConfig.ExplicitCredentials && appConfig.SkipAccount {
			return fmt.Errorf("explicit_credentials has no effect with skip_account")
		}
		return nil
	})

	fmt.Println()
	if failures > 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("%d check(s) need attention", failures)))
		return nil
	}
	fmt.Println(ui.FormatSuccess("Everything looks good"))
	return nil
}

// checkStep runs a check function and prints the result nicely
func checkStep(name string, check func() error) bool {
	err := check()
	if err == nil {
		fmt.Printf("%s %s\n", ui.StyleSuccess.Render(ui.IconSuccess), name)
		return true
	}
	fmt.Printf("%s %s\n", ui.StyleError.Render(ui.IconError), name)
	fmt.Printf("    %s\n", ui.StyleMuted.Render(err.Error()))
	return false
}
