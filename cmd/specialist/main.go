package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/PromptExecution/flashbacker-mcp/internal/capability"
	"github.com/PromptExecution/flashbacker-mcp/internal/channel"
	"github.com/PromptExecution/flashbacker-mcp/internal/config"
	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
	"github.com/PromptExecution/flashbacker-mcp/internal/persona"
	"github.com/PromptExecution/flashbacker-mcp/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Default()
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, "specialist")
	log := logger.GetDefault()

	if err := cfg.ValidateSpecialist(); err != nil {
		log.Fatal("invalid configuration", logger.Fields{"error": err})
	}

	store, err := channel.NewRedisStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		log.Fatal("failed to connect to channel store", logger.Fields{"error": err})
	}
	defer store.Close()

	w, err := worker.New(store, capability.Builtin(), worker.Config{
		ID:             cfg.Specialist.AgentID,
		Role:           cfg.Specialist.Role,
		Specialization: cfg.Specialist.Specialization,
		PollInterval:   cfg.Specialist.PollInterval,
		Persona:        persona.NewExecProvider(cfg.Flashback.Bin, cfg.Flashback.Timeout),
		Logger:         log,
	})
	if err != nil {
		log.Fatal("failed to create worker", logger.Fields{"error": err})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		log.Fatal("failed to start worker", logger.Fields{"error": err})
	}

	w.WaitForShutdown()

	processed, failed, dropped := w.Stats()
	log.Info("specialist exiting", logger.Fields{
		"processed": processed,
		"failed":    failed,
		"dropped":   dropped,
	})
}
