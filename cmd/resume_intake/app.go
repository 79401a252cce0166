package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/resume-intake/internal/config"
	"github.com/jonathan/resume-intake/internal/db"
	"github.com/jonathan/resume-intake/internal/extraction"
	"github.com/jonathan/resume-intake/internal/intake"
	"github.com/jonathan/resume-intake/internal/llm"
	"github.com/jonathan/resume-intake/internal/logger"
	"github.com/jonathan/resume-intake/internal/messaging"
	"github.com/jonathan/resume-intake/internal/storage"
	"github.com/jonathan/resume-intake/internal/types"
)

const serviceName = "resume-intake"

// app holds the collaborators shared by every command
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	passwords *config.PasswordConfig

	db        *db.DB
	documents storage.Store
	llm       llm.Client
	extractor intake.ProfileExtractor
	rmq       *messaging.RabbitMQ
	publisher intake.EventPublisher
}

// appOptions selects which collaborators a command needs
type appOptions struct {
	database  bool
	extractor bool
	messaging bool
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(logger.Options{
		Service:     serviceName,
		Environment: cfg.Server.Environment,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	return cfg, log, nil
}

// newApp wires the collaborators named by opts. Close must be called on success.
func newApp(ctx context.Context, opts appOptions) (_ *app, err error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	passwords, err := config.NewPasswordConfig(cfg.Auth.BcryptCost, cfg.Auth.PasswordPepper)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, passwords: passwords}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if opts.database {
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("database.url is required (set INTAKE_DATABASE_URL)")
		}
		a.db, err = db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err = a.db.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	a.documents, err = newDocumentStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	if opts.extractor {
		if err = a.connectExtractor(ctx); err != nil {
			return nil, err
		}
	}

	if opts.messaging && cfg.RabbitMQ.URL != "" {
		a.rmq, err = messaging.Connect(cfg.RabbitMQ.URL, log.WithComponent("rabbitmq"))
		if err != nil {
			return nil, err
		}
		publisher, perr := messaging.NewPublisher(a.rmq, cfg.RabbitMQ.Exchange, serviceName, log)
		if perr != nil {
			err = perr
			return nil, err
		}
		a.publisher = publisher
	}

	return a, nil
}

// connectExtractor leaves a.extractor nil when no API key is configured;
// the intake flows then report the extractor as not configured.
func (a *app) connectExtractor(ctx context.Context) error {
	apiKey := a.cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		a.log.Warn().Msg("no extraction API key configured; imports will be rejected")
		return nil
	}

	client, err := llm.NewClient(ctx, llmConfig(a.cfg.LLM), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.llm = client

	extractor, err := extraction.NewExtractor(client, llm.ModelTier(a.cfg.LLM.Tier), a.log)
	if err != nil {
		return err
	}
	a.extractor = extractor
	return nil
}

func newDocumentStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Backend == config.StorageGCS {
		return storage.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	}
	return storage.NewMemoryStore(), nil
}

func llmConfig(c config.LLMConfig) *llm.Config {
	lc := llm.DefaultGeminiConfig().
		WithModel(llm.TierLite, c.LiteModel).
		WithModel(llm.TierStandard, c.StandardModel).
		WithModel(llm.TierAdvanced, c.AdvancedModel)
	lc.Temperature = c.Temperature
	lc.RequestsPerMinute = c.RequestsPerMinute
	return lc
}

// bulkConfig converts the bulk section and warns about the shared credential
func (a *app) bulkConfig() intake.BulkConfig {
	if a.cfg.Bulk.DefaultPassword == "" {
		a.log.Warn().Msg("bulk.default_password is not set; bulk provisioning is disabled")
	} else {
		a.log.Warn().Msg("bulk provisioning assigns a shared default password; accounts must change it at first login")
	}
	return intake.BulkConfig{
		DefaultPassword: a.cfg.Bulk.DefaultPassword,
		DefaultRole:     types.Role(a.cfg.Bulk.DefaultRole),
		CallTimeout:     a.cfg.Bulk.CallTimeout,
	}
}

func (a *app) orchestrator() *intake.Orchestrator {
	return intake.NewOrchestrator(a.extractor, a.documents, a.db, a.passwords, a.publisher, a.bulkConfig(), a.log)
}

// Close releases every opened connection
func (a *app) Close() {
	if a.rmq != nil {
		if err := a.rmq.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close RabbitMQ connection")
		}
	}
	if a.llm != nil {
		if err := a.llm.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close LLM client")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
