// Command medchain is the terminal console for the MedChain inventory
// backend: live notifications, inventory tables and alert actions.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/app"
	"github.com/medchain/inventory-console/internal/credential"
	"github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/metrics"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/notify"
	"github.com/medchain/inventory-console/internal/store"
	appsync "github.com/medchain/inventory-console/internal/sync"
	configview "github.com/medchain/inventory-console/internal/ui/config"
)

// historyRetention bounds how long journal entries are kept.
const historyRetention = 90 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; it only seeds MEDCHAIN_* overrides.
	_ = godotenv.Load()

	configPath := flag.String("config", model.DefaultConfigPath(), "path to config.yaml")
	noHistory := flag.Bool("no-history", false, "disable the notification history journal")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.ListenAddr != "" {
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	token, err := credential.Lookup(credential.BackendTokenKey)
	if err != nil {
		// The keyring is optional; run unauthenticated.
		logger.Warn("reading API token", zap.Error(err))
	}
	timeout := time.Duration(cfg.Backend.TimeoutSec) * time.Second
	client := inventory.NewClient(cfg.Backend.BaseURL,
		inventory.WithToken(token),
		inventory.WithTimeout(timeout),
	)

	notes := notify.NewStore(logger, notify.WithDismisser(client))
	fetcher := notify.NewFetcher(client, notes, nil, logger)

	deps := app.Deps{
		Ctx:         ctx,
		Config:      cfg,
		ConfigPath:  *configPath,
		Store:       notes,
		Inventory:   client,
		Credentials: configview.KeyringCredentials(),
		Validator:   validateBackend(timeout),
		Logger:      logger,
	}

	if !*noHistory && cfg.Storage.HistoryDB != "" {
		hist, journal, err := openHistory(ctx, cfg.Storage.HistoryDB, notes, logger)
		if err != nil {
			logger.Warn("history journal disabled", zap.Error(err))
		} else {
			defer hist.Close()
			defer journal.Close()
			deps.History = hist
		}
	}

	poller := appsync.New(fetcher, notes, time.Duration(cfg.Backend.PollIntervalSec)*time.Second, logger)
	defer poller.Stop()
	deps.Poller = poller

	if cfg.Push.Enabled {
		channel := notify.NewChannelManager(
			cfg.Backend.WSURL,
			notify.NewWSDialer(token, timeout),
			notes,
			logger,
			notify.WithReconnectDelay(time.Duration(cfg.Push.ReconnectDelayMS)*time.Millisecond),
			notify.WithStateListener(poller.PushListener()),
		)
		// A failed dial schedules its own reconnect.
		_ = channel.Connect()
		defer channel.Close()
	}

	logger.Info("console starting",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Bool("push", cfg.Push.Enabled),
		zap.Bool("history", deps.History != nil))

	p := tea.NewProgram(app.New(deps), tea.WithAltScreen())
	_, err = p.Run()

	// Let backend dismisses finish before their context is cancelled.
	if !drain(notes.Wait, shutdownGrace) {
		logger.Warn("backend dismisses still pending at exit", zap.Duration("grace", shutdownGrace))
	}
	cancel()
	return err
}

// shutdownGrace bounds how long exit waits for in-flight dismisses.
const shutdownGrace = 5 * time.Second

// drain runs wait and reports whether it returned within grace.
func drain(wait func(), grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(grace):
		return false
	}
}

// newLogger builds a file logger so the TUI keeps the terminal.
func newLogger(lc model.LoggingConfig) (*zap.Logger, error) {
	if lc.File == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(lc.File), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	level, err := zap.ParseAtomicLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", lc.Level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.OutputPaths = []string{lc.File}
	zc.ErrorOutputPaths = []string{lc.File}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// openHistory opens the journal database, prunes old entries and starts
// journalling store mutations into it.
func openHistory(
	ctx context.Context,
	path string,
	notes *notify.Store,
	logger *zap.Logger,
) (*store.SQLiteStore, *notify.Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating history directory: %w", err)
	}
	hist, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}

	pruned, err := hist.Prune(ctx, time.Now().Add(-historyRetention))
	if err != nil {
		logger.Warn("pruning history", zap.Error(err))
	} else if pruned > 0 {
		logger.Info("pruned history", zap.Int64("entries", pruned))
	}

	return hist, notify.StartJournal(notes, hist, nil, logger), nil
}

// validateBackend checks a base URL and token with a throwaway client.
func validateBackend(timeout time.Duration) configview.Validator {
	return func(ctx context.Context, baseURL, token string) (string, error) {
		c := inventory.NewClient(baseURL,
			inventory.WithToken(token),
			inventory.WithTimeout(timeout),
		)
		return c.ValidateConnection(ctx)
	}
}
