package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmmiller26/ai-fun-token-wheel/api"
	"github.com/cmmiller26/ai-fun-token-wheel/config"
	"github.com/cmmiller26/ai-fun-token-wheel/session"
)

var (
	serveAddr   string
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  "Start the token wheel HTTP API server with background idle-session eviction.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to YAML config file")
}

func runServe(_ *cobra.Command, _ []string) error {
	setupLogger()

	cfg, err := config.Load(serveConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	mdl, err := loadModel(cfg.Model)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}
	slog.Info("model ready", "vocab_size", mdl.VocabSize())

	mgr := session.NewManager(mdl, session.Options{
		MaxLength:     cfg.Generation.MaxLength,
		TopOtherCount: cfg.Generation.TopOtherCount,
		TTL:           cfg.Sessions.TTL.Std(),
	})

	done := make(chan struct{})
	defer close(done)
	mgr.StartSweeper(cfg.Sessions.SweepInterval.Std(), done)

	srv := api.NewServer(mgr, mdl, cfg.Thresholds, cfg.Addr)
	return srv.Start()
}

// setupLogger installs the process-wide structured logger.
func setupLogger() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}
