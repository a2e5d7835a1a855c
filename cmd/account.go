package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/core/services"
	"github.com/maidsafe/safeload/pkg/ui"
)

var (
	accountPreload    string
	accountNoDefault  bool
	accountShowSecret bool
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Create a test account preloaded with credits",
	Long: `Create a SAFE test account without uploading anything.

By default the keys become the safe CLI's default identity, so later
'safeload run --skip-account' invocations pay from this account.`,
	RunE: runAccount,
}

func init() {
	accountCmd.Flags().StringVar(&accountPreload, "preload", "", "Test credits to preload (default from config)")
	accountCmd.Flags().BoolVar(&accountNoDefault, "no-default", false, "Do not store the keys as the CLI's default identity")
	accountCmd.Flags().BoolVar(&accountShowSecret, "show-secret", false, "Print the secret key")
}

func runAccount(cmd *cobra.Command, args []string) error {
	preload := accountPreload
	if preload == "" {
		preload = appConfig.PreloadAmount
	}

	fmt.Println(ui.FormatInfo(fmt.Sprintf("Creating test account with %s credits...", preload)))

	account, err := accountService.Execute(getContext(cmd), services.AccountCreateRequest{
		Preload:          preload,
		PersistAsDefault: appConfig.PersistAsDefault && !accountNoDefault,
	})
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess("Account created"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("XOR-URL", account.XORURL))
	fmt.Println(ui.RenderKeyValue("Public key", account.PublicKey))
	fmt.Println(ui.RenderKeyValue("Preload", account.Preload))
	fmt.Println(ui.RenderKeyValue("Default", fmt.Sprintf("%t", account.Default)))
	if accountShowSecret && account.SecretKey != "" {
		fmt.Println(ui.RenderKeyValue(ui.IconKey+" Secret key", account.SecretKey))
	}

	return nil
}
