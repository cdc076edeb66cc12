package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hendrawan/posprint/internal/agent"
	"github.com/hendrawan/posprint/internal/ble"
	"github.com/hendrawan/posprint/internal/config"
	"github.com/hendrawan/posprint/internal/identity"
	"github.com/hendrawan/posprint/internal/receipt"
	"github.com/hendrawan/posprint/internal/retry"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/posprint/config.yaml)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	setupLogging(cfg.LogLevel)

	adapter := ble.NewBluetoothAdapter()
	if !adapter.Supported() {
		// Unsupported platform is reported once; the agent still serves
		// status so the UI can hide the feature.
		slog.Warn("bluetooth is not available, printing disabled")
	}

	store := storeOverride(cfg)
	transport := &ble.Transport{
		ChunkSize:       cfg.Printer.ChunkSize,
		InterChunkDelay: time.Duration(cfg.Printer.InterChunkDelayMS) * time.Millisecond,
		Retry: retry.Policy{
			MaxRetries: cfg.Printer.MaxRetries,
			Backoff:    500 * time.Millisecond,
		},
	}

	manager := ble.NewManager(
		adapter,
		ble.AutoPicker{NameHint: cfg.Printer.NameHint},
		identity.NewFileStore(cfg.IdentityPath),
		transport,
		ble.Options{
			ScanTimeout: time.Duration(cfg.Printer.ScanTimeoutS) * time.Second,
			Store:       store,
		},
	)
	manager.OnChange(func(st ble.Status) {
		slog.Debug("printer state changed",
			"connected", st.Connected, "connecting", st.Connecting,
			"printing", st.Printing, "error", st.Error)
	})

	// Opportunistic reconnect to the saved printer; never blocks startup.
	go manager.AutoReconnect(context.Background())

	server := agent.NewServer(manager, store)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("agent listening", "addr", cfg.Listen)
		errCh <- server.Run(cfg.Listen)
	}()

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		slog.Error("server stopped", "error", err)
	}
	manager.Shutdown()
}

// loadConfig loads the config from the specified path, or falls back to the
// default config path, or uses built-in defaults when no file exists.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.Load(config.DefaultConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// storeOverride maps the configured store identity onto the receipt header,
// or nil when nothing is configured.
func storeOverride(cfg *config.Config) *receipt.Store {
	if cfg.Store.Name == "" && cfg.Store.Address == "" && cfg.Store.Phone == "" {
		return nil
	}
	return &receipt.Store{
		Name:    cfg.Store.Name,
		Address: cfg.Store.Address,
		Phone:   cfg.Store.Phone,
	}
}
