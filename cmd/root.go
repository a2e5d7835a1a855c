package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maidsafe/safeload/internal/adapters/generator"
	"github.com/maidsafe/safeload/internal/adapters/repository"
	"github.com/maidsafe/safeload/internal/adapters/safecli"
	"github.com/maidsafe/safeload/internal/core/services"
	"github.com/maidsafe/safeload/pkg/config"
	"github.com/maidsafe/safeload/pkg/logging"
	"github.com/maidsafe/safeload/pkg/ui"
	"github.com/maidsafe/safeload/pkg/workspace"
)

var (
	// Global flags
	workspaceDir string
	configFile   string
	verbose      bool

	// Global state
	appConfig     *config.Config
	appConfigPath string
	appWorkspace  *workspace.Workspace

	// Adapters
	safeClient *safecli.SafeCLI
	batchRepo  *repository.BatchRepository

	// Services
	runService     *services.RunService
	accountService *services.AccountService
	verifyService  *services.VerifyService
	addressService *services.AddressService
	reportService  *services.ReportService
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "safeload",
	Short: "safeload - upload random test data to a SAFE network",
	Long: ui.StyleTitle.Render("safeload") + " - SAFE network upload load generator\n\n" +
		"Creates a test account preloaded with credits, generates random files\n" +
		"and uploads each one, keeping the address the network returns for it.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "dir", "d", "", "Workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/safeload/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the config and wires adapters into services
func initializeApp(cmd *cobra.Command, args []string) error {
	// Skip initialization for version command
	if cmd.Name() == "version" {
		return nil
	}

	path := configFile
	if path == "" {
		p, err := workspace.ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	appConfigPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	appConfig = cfg

	ui.SetTheme(cfg.ColorTheme)
	logging.Setup(logging.Options{Verbose: verbose, Format: cfg.LogFormat})

	ws, err := workspace.New(workspaceDir, workspace.Layout{
		FilesDir:     cfg.FilesDir,
		AddressesDir: cfg.AddressesDir,
		RunsDir:      cfg.RunsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize workspace: %w", err)
	}
	appWorkspace = ws

	// Initialize adapters
	safeClient = safecli.NewSafeCLI(cfg.SafeBinary)
	batchRepo = repository.NewBatchRepository(ws)

	// Initialize services
	runService = services.NewRunService(safeClient, generator.NewRandomFileGenerator(), batchRepo, ws, cfg)
	accountService = services.NewAccountService(safeClient)
	verifyService = services.NewVerifyService(batchRepo, ws)
	addressService = services.NewAddressService(ws)
	reportService = services.NewReportService(batchRepo)

	return nil
}

// getContext returns the command's context, cancelled on interrupt
func getContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
