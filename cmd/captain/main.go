package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/PromptExecution/flashbacker-mcp/internal/channel"
	"github.com/PromptExecution/flashbacker-mcp/internal/config"
	"github.com/PromptExecution/flashbacker-mcp/internal/dispatcher"
	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
	"github.com/PromptExecution/flashbacker-mcp/internal/persona"
	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Default()
	if err := cfg.ValidateCaptain(); err != nil {
		logger.Init(cfg.Logging.Level, cfg.Logging.Format, "captain")
		logger.GetDefault().Fatal("invalid configuration", logger.Fields{"error": err})
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, "captain")
	log := logger.GetDefault()

	log.Info("captain starting", logger.Fields{"agent_id": cfg.Captain.AgentID})

	store, err := channel.NewRedisStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		log.Fatal("failed to connect to channel store", logger.Fields{"error": err})
	}
	defer store.Close()

	batch, err := loadBatch(cfg.Captain.PlanPath)
	if err != nil {
		log.Fatal("failed to load delegation plan", logger.Fields{"error": err})
	}

	d := dispatcher.New(store, dispatcher.Config{
		Roster:       dispatcher.DefaultRoster(),
		PublishDelay: cfg.Captain.PublishDelay,
		Persona:      persona.NewExecProvider(cfg.Flashback.Bin, cfg.Flashback.Timeout),
		Logger:       log,
	})

	failed := d.Delegate(context.Background(), batch)
	for _, f := range failed {
		log.Error("task not delegated", logger.Fields{
			"role":  f.Task.Role,
			"task":  f.Task.Description,
			"error": f.Err,
		})
	}

	log.Info("delegation complete", logger.Fields{
		"delegated": len(batch) - len(failed),
		"failed":    len(failed),
	})

	if len(failed) == len(batch) {
		os.Exit(1)
	}
}

// loadBatch reads the YAML plan when one is configured, otherwise the
// built-in CommerceRack migration workflow.
func loadBatch(planPath string) ([]*task.Task, error) {
	if planPath != "" {
		return dispatcher.LoadPlan(planPath)
	}
	return migrationBatch(), nil
}

// migrationBatch is the stock Perl-to-Rust migration workflow.
func migrationBatch() []*task.Task {
	return []*task.Task{
		task.New("architect", "Review Cargo workspace structure and recommend improvements").
			WithPriority(10).
			WithContext(map[string]interface{}{
				"workspace_path": "commercerack-rust",
				"crates_count":   12,
				"focus":          "modular architecture",
			}),
		task.New("database-architect", "Complete Postgres schema migration for remaining 130 tables").
			WithPriority(9).
			WithContext(map[string]interface{}{
				"schema_path":      "migrations/001_initial_schema.sql",
				"remaining_tables": 130,
				"source":           "/home/user/commercerack-backend/schema.sql",
			}),
		task.New("rust-expert", "Translate CUSTOMER.pm to Rust customer crate").
			WithPriority(8).
			WithContext(map[string]interface{}{
				"source_file":   "/home/user/commercerack-backend/lib/CUSTOMER.pm",
				"target_crate":  "crates/customer",
				"lines_of_code": 2579,
			}),
		task.New("devops", "Set up k0s cluster and deploy CommerceRack containers").
			WithPriority(7).
			WithContext(map[string]interface{}{
				"terraform_path": "infra/k0s",
				"use_opentofu":   true,
				"k0s_version":    "latest",
			}),
		task.New("qa", "Create integration test suite for database layer").
			WithPriority(6).
			WithContext(map[string]interface{}{
				"test_path":       "crates/db/tests",
				"framework":       "cargo test",
				"coverage_target": 80,
			}),
		task.New("security", "Audit password hashing and authentication patterns").
			WithPriority(8).
			WithContext(map[string]interface{}{
				"focus_areas": []string{"password_hashing", "session_management", "sql_injection"},
				"target":      "crates/customer",
			}),
		task.New("api-designer", "Design RESTful API schema for Axum server").
			WithPriority(7).
			WithContext(map[string]interface{}{
				"endpoints":   []string{"customers", "products", "orders", "cart"},
				"auth_type":   "JWT",
				"api_version": "v1",
			}),
	}
}
