package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	configfile "github.com/custodia-labs/corpora-cli/internal/adapters/driven/config/file"
	embeddingopenai "github.com/custodia-labs/corpora-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/corpora-cli/internal/adapters/driven/eventlog/fanout"
	slogevents "github.com/custodia-labs/corpora-cli/internal/adapters/driven/eventlog/slog"
	llmopenai "github.com/custodia-labs/corpora-cli/internal/adapters/driven/llm/openai"
	objectfile "github.com/custodia-labs/corpora-cli/internal/adapters/driven/objectstore/file"
	"github.com/custodia-labs/corpora-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/corpora-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/chunkers/generative"
	"github.com/custodia-labs/corpora-cli/internal/chunkers/semantic"
	"github.com/custodia-labs/corpora-cli/internal/chunkers/simple"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/services"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; a missing file is not an error.
	_ = godotenv.Load()

	config, err := configfile.NewConfigStore(os.Getenv("CORPORA_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}

	store, err := sqlite.NewStore(os.Getenv("CORPORA_DATA_DIR"))
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer store.Close()

	// Console log plus durable audit trail.
	events := fanout.New(slogevents.New(os.Stderr), store.AuditLog())

	objects, err := objectfile.NewStore(os.Getenv("CORPORA_BLOB_DIR"))
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	// Non-simple chunking and the evaluation judge need providers; the
	// pipeline degrades to SIMPLE chunking and fallback evaluation
	// records without them.
	var llm driven.LLMService
	var embedder driven.EmbeddingService
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		llm, err = llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  apiKey,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   config.GetString("llm.model"),
		})
		if err != nil {
			return fmt.Errorf("failed to configure LLM provider: %w", err)
		}

		embedder, err = embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  apiKey,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   config.GetString("embedding.model"),
		})
		if err != nil {
			return fmt.Errorf("failed to configure embedding provider: %w", err)
		}
	}

	fallback := simple.New()
	strategies := map[domain.ChunkingLevel]chunkers.Strategy{
		domain.LevelSimple: fallback,
	}
	if embedder != nil {
		strategies[domain.LevelSemantic] = semantic.New(embedder, events)
	}
	if llm != nil {
		strategies[domain.LevelGenerative] = generative.New(llm, events)
	}

	validator := services.NewStateTransitionValidator(events)
	blobs := services.NewBlobService(store.BlobStore(), objects, events)
	chunking := services.NewChunkingService(strategies, fallback, events)
	deadLetter := services.NewDeadLetterService(store.DeadLetterStore(), events)
	evaluation := services.NewEvaluationService(llm, store.EvaluationStore(), events)

	var recoveryOpts []services.RecoveryOption
	if minutes := config.GetInt("scheduler.stuck_threshold_minutes"); minutes > 0 {
		recoveryOpts = append(recoveryOpts, services.WithStuckThreshold(time.Duration(minutes)*time.Minute))
	}
	recovery := services.NewRecoveryService(store.IngestionJobStore(), deadLetter, validator, events, recoveryOpts...)

	var schedulerOpts []services.SchedulerOption
	if interval := config.GetString("scheduler.sweep_interval"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid scheduler.sweep_interval: %w", err)
		}
		schedulerOpts = append(schedulerOpts, services.WithSweepInterval(d))
	}
	if interval := config.GetString("scheduler.gc_interval"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid scheduler.gc_interval: %w", err)
		}
		schedulerOpts = append(schedulerOpts, services.WithGCInterval(d))
	}
	scheduler := services.NewScheduler(recovery, blobs, events, schedulerOpts...)

	ingest := services.NewIngestOrchestrator(
		store.IngestionJobStore(),
		store.ChunkStore(),
		blobs,
		chunking,
		deadLetter,
		validator,
		events,
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingest:     ingest,
		Blobs:      blobs,
		DeadLetter: deadLetter,
		Evaluation: evaluation,
		Recovery:   recovery,
		Scheduler:  scheduler,
	})

	return cli.Execute()
}
