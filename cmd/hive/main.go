package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/PromptExecution/flashbacker-mcp/internal/capability"
	"github.com/PromptExecution/flashbacker-mcp/internal/channel"
	"github.com/PromptExecution/flashbacker-mcp/internal/config"
	"github.com/PromptExecution/flashbacker-mcp/internal/dispatcher"
	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
	"github.com/PromptExecution/flashbacker-mcp/internal/persona"
	"github.com/PromptExecution/flashbacker-mcp/internal/worker"
)

// Runs the full default roster of specialists in one process. Each
// role still owns its own slot and loop; only the hosting changes.
func main() {
	_ = godotenv.Load()

	cfg := config.Default()
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, "hive")
	log := logger.GetDefault()

	store, err := channel.NewRedisStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		log.Fatal("failed to connect to channel store", logger.Fields{"error": err})
	}
	defer store.Close()

	h, err := worker.NewHive(store, capability.Builtin(), worker.HiveConfig{
		Roster:          dispatcher.DefaultRoster(),
		PollInterval:    cfg.Specialist.PollInterval,
		ShutdownTimeout: 30 * time.Second,
		Persona:         persona.NewExecProvider(cfg.Flashback.Bin, cfg.Flashback.Timeout),
		Logger:          log,
	})
	if err != nil {
		log.Fatal("failed to build hive", logger.Fields{"error": err})
	}

	if err := h.Start(); err != nil {
		log.Fatal("failed to start hive", logger.Fields{"error": err})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, draining", logger.Fields{"signal": sig.String()})

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		log.Error("hive shutdown failed", logger.Fields{"error": err})
	}

	stats := h.Stats()
	log.Info("hive exiting", logger.Fields{
		"processed": stats.Processed,
		"failed":    stats.Failed,
		"dropped":   stats.Dropped,
	})
}
