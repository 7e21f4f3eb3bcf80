package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/internal/config"
	"github.com/spektr-org/pengdash/internal/logging"
	"github.com/spektr-org/pengdash/internal/tui"
	"github.com/spektr-org/pengdash/session"
)

// ============================================================================
// PENGDASH CLI — Palmer Penguins dashboard
// ============================================================================

const version = "0.3.0"

var (
	// Global flags
	cfgPath  string
	dataPath string
	verbose  bool

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pengdash",
	Short: "Interactive Palmer Penguins dashboard",
	Long: `pengdash explores the Palmer Penguins dataset.

Pick a numeric attribute, two histogram bin counts and a set of species; the
data table, grid, histograms, scatterplot and summary follow the selection.

Run without arguments to open the terminal dashboard. When stdout is not a
terminal every view is printed once as plain text.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDashboard,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "pengdash %s\n", version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "Path to YAML config")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "Path to penguins CSV (default: embedded sample)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(renderCmd, schemaCmd, configCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if dataPath != "" {
		c.Dataset.Path = dataPath
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c

	logger, _, err = logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	return nil
}

// openSession loads the dataset and starts one session on it.
func openSession(ctx context.Context) (*session.Manager, *session.Session, error) {
	ds, err := dataset.Load(ctx, dataset.Source{Path: cfg.Dataset.Path}, logger)
	if err != nil {
		return nil, nil, err
	}
	mgr := session.NewManager(ds.Base(), logger, cfg.SessionOptions()...)
	return mgr, mgr.Open(), nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// The dashboard owns the terminal; stderr logs would tear the screen.
	if interactive && cfg.Logging.File == "" {
		logger = zap.NewNop()
	}

	mgr, sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer mgr.CloseAll()

	if !interactive {
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderSession(sess, sess.Views(), plainWidth, cfg.UI.ChartRows, tui.PlainStyles()))
		return nil
	}
	return tui.Run(sess, cfg.UI)
}
