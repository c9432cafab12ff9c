// Command devbackend serves an in-memory inventory backend and push
// channel for running the console locally.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/devbackend"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	addr := flag.String("addr", getEnv("DEVBACKEND_ADDR", ":8000"), "listen address")
	token := flag.String("token", getEnv("DEVBACKEND_TOKEN", ""), "require this Bearer token (empty disables auth)")
	checkEvery := flag.Duration("check-every", 0, "run the alert check on this interval and push new alerts (0 disables)")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	cfg := zap.NewDevelopmentConfig()
	if !*debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: building logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	inv := devbackend.NewInventory(nil)
	srv := devbackend.New(inv, devbackend.NewHub(log), *token, log)

	go func() {
		if err := srv.Listen(*addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan struct{})
	if *checkEvery > 0 {
		go func() {
			ticker := time.NewTicker(*checkEvery)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					if raised := srv.CheckAndBroadcast(); len(raised) > 0 {
						log.Info("scheduled alert check", zap.Int("raised", len(raised)))
					}
				}
			}
		}()
	}

	log.Info("development backend running",
		zap.String("addr", *addr),
		zap.Bool("auth", *token != ""),
		zap.Duration("check_every", *checkEvery))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	close(stop)
	if err := srv.Shutdown(); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
