package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/homefix-vision/internal/config"
	"github.com/bryanwahyu/homefix-vision/internal/domain/audit"
	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
	"github.com/bryanwahyu/homefix-vision/internal/domain/tutorials"
	"github.com/bryanwahyu/homefix-vision/internal/infra/ai/gemini"
	"github.com/bryanwahyu/homefix-vision/internal/infra/ai/openai"
	"github.com/bryanwahyu/homefix-vision/internal/infra/db/migrations"
	mysqlp "github.com/bryanwahyu/homefix-vision/internal/infra/db/mysql"
	"github.com/bryanwahyu/homefix-vision/internal/infra/db/postgres"
	"github.com/bryanwahyu/homefix-vision/internal/infra/storage"
	"github.com/bryanwahyu/homefix-vision/internal/infra/video"
	"github.com/bryanwahyu/homefix-vision/internal/middleware"
)

// deps are the adapters built from config. Optional ones stay nil when not configured.
type deps struct {
	gateway   diagnosis.ModelGateway
	model     string
	audit     audit.Repository
	archive   diagnosis.RawOutputArchive
	tutorials tutorials.Finder
	checkers  map[string]middleware.HealthChecker

	db *sql.DB
}

func (d *deps) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
}

func wire(ctx context.Context, cfg *config.Config, log *slog.Logger) (*deps, error) {
	d := &deps{checkers: map[string]middleware.HealthChecker{}}

	d.gateway, d.model = newGateway(cfg)
	if d.gateway == nil {
		log.Warn("model provider key missing; analyze requests will fail until it is set",
			"provider", cfg.AI.Provider)
	}

	if cfg.Audit.Driver != "" {
		if err := d.wireAudit(ctx, cfg, log); err != nil {
			d.Close()
			return nil, err
		}
	}

	if cfg.Archive.Endpoint != "" {
		store, err := storage.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		d.archive = store
		d.checkers["archive"] = middleware.CheckFunc(store.Check)
		log.Info("raw output archive enabled", "bucket", cfg.Archive.BucketName)
	}

	if key := strings.TrimSpace(cfg.YouTube.APIKey); key != "" {
		yt, err := video.NewYouTube(ctx, key)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.tutorials = yt
	}

	return d, nil
}

func newGateway(cfg *config.Config) (diagnosis.ModelGateway, string) {
	key := strings.TrimSpace(cfg.APIKey())

	switch cfg.AI.Provider {
	case "gemini":
		c := gemini.NewClient(key, cfg.AI.Model)
		c.MaxTokens = cfg.AI.MaxTokens
		c.JSONMode = cfg.AI.JSONMode
		if key == "" {
			return nil, c.ModelName()
		}
		return c, c.ModelName()
	default:
		oc := goopenai.DefaultConfig(key)
		if cfg.AI.OpenAIBase != "" {
			oc.BaseURL = cfg.AI.OpenAIBase
		}
		c := openai.NewClientWithConfig(oc, cfg.AI.Model)
		c.MaxTokens = cfg.AI.MaxTokens
		c.JSONMode = cfg.AI.JSONMode
		if key == "" {
			return nil, c.ModelName()
		}
		return c, c.ModelName()
	}
}

func (d *deps) wireAudit(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var err error
	switch cfg.Audit.Driver {
	case "mysql":
		d.db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err == nil {
			d.audit = mysqlp.NewAuditRepository(d.db)
		}
	case "postgres":
		d.db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		if err == nil {
			d.audit = postgres.NewAuditRepository(d.db)
		}
	}
	if err != nil {
		return fmt.Errorf("%s connect: %w", cfg.Audit.Driver, err)
	}

	n, err := migrations.Up(d.db, cfg.Audit.Driver)
	if err != nil {
		return err
	}
	log.Info("audit trail enabled", "driver", cfg.Audit.Driver, "migrations_applied", n)
	d.checkers["audit"] = &middleware.DatabaseHealthChecker{DB: d.db}
	return nil
}
