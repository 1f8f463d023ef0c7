package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bryanwahyu/scenario-search/internal/application"
	"github.com/bryanwahyu/scenario-search/internal/application/ingest"
	"github.com/bryanwahyu/scenario-search/internal/config"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
	mysqlp "github.com/bryanwahyu/scenario-search/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/scenario-search/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/scenario-search/internal/infra/db/sqlite"
	minioStore "github.com/bryanwahyu/scenario-search/internal/infra/storage"
	"github.com/bryanwahyu/scenario-search/internal/infra/upstream"
)

// One-shot ingestion. Dipakai dari cron atau manual sebelum server pertama
// kali jalan, supaya request pertama tidak nunggu full refresh.
func main() {
	force := flag.Bool("force", false, "refresh even if the dataset is still fresh")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall ingestion deadline")
	flag.Parse()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	driver, dsn := cfg.DSN()
	var db *sql.DB
	var repo scenarios.Repository
	switch driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, dsn)
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewScenarioRepository(db)
	case "sqlite":
		db, err = sqlitep.Connect(ctx, dsn)
		if err != nil {
			log.Fatalf("sqlite connect error: %v", err)
		}
		repo = sqlitep.NewScenarioRepository(db)
	default:
		db, err = postgresp.Connect(ctx, dsn)
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewScenarioRepository(db)
	}
	defer db.Close()

	var archive scenarios.SnapshotArchive
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = store
	}

	svc := &ingest.Service{
		Repo: repo,
		Source: upstream.NewClient(upstream.Config{
			BaseURL:     cfg.Upstream.BaseURL,
			Token:       cfg.Upstream.BearerToken,
			Timeout:     cfg.UpstreamTimeout(),
			Concurrency: cfg.Upstream.Concurrency,
		}, logger),
		Archive: archive,
		Clock:   application.SystemClock{},
		Log:     logger,
	}

	if *force {
		if err := svc.Refresh(ctx); err != nil {
			logger.Error("ingestion failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	ran, err := svc.RunOnce(ctx, cfg.MaxAge())
	if err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		os.Exit(1)
	}
	if !ran {
		logger.Info("dataset still fresh, nothing to do")
	}
}

// newLogger production logger dengan level dari config.
func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("unknown log level %q", level)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}
