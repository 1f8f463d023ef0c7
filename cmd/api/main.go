package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bryanwahyu/scenario-search/internal/application"
	"github.com/bryanwahyu/scenario-search/internal/application/ingest"
	"github.com/bryanwahyu/scenario-search/internal/application/queries"
	"github.com/bryanwahyu/scenario-search/internal/config"
	"github.com/bryanwahyu/scenario-search/internal/domain/nlq"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
	mysqlp "github.com/bryanwahyu/scenario-search/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/scenario-search/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/scenario-search/internal/infra/db/sqlite"
	"github.com/bryanwahyu/scenario-search/internal/infra/httpserver"
	nlqheuristic "github.com/bryanwahyu/scenario-search/internal/infra/nlq/heuristic"
	nlqopenai "github.com/bryanwahyu/scenario-search/internal/infra/nlq/openai"
	minioStore "github.com/bryanwahyu/scenario-search/internal/infra/storage"
	"github.com/bryanwahyu/scenario-search/internal/infra/upstream"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// connect database sesuai driver
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

	// init source upstream
	source := upstream.NewClient(upstream.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		Token:       cfg.Upstream.BearerToken,
		Timeout:     cfg.UpstreamTimeout(),
		Concurrency: cfg.Upstream.Concurrency,
	}, logger)

	// init archive snapshot (opsional, skip kalau minio tidak dikonfigurasi)
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

	// interpreter: OpenAI kalau ada API key, fallback pattern-matching lokal
	var interpreter nlq.Interpreter
	if cfg.OpenAI.APIKey != "" {
		interpreter = nlqopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		logger.Warn("OPENAI_API_KEY not set, using heuristic interpreter")
		interpreter = nlqheuristic.New()
	}

	// init services
	ingestSvc := &ingest.Service{
		Repo:    repo,
		Source:  source,
		Archive: archive,
		Clock:   application.SystemClock{},
		Log:     logger,
	}
	queriesSvc := &queries.Service{
		Repo:            repo,
		Interpreter:     interpreter,
		Refresher:       ingestSvc,
		Clock:           application.SystemClock{},
		Log:             logger,
		MaxAge:          cfg.MaxAge(),
		RefreshBudget:   cfg.RefreshTimeout(),
		InterpretBudget: cfg.InterpretTimeout(),
	}

	// init router
	handler := httpserver.NewRouter(queriesSvc, db, httpserver.Options{
		APIKey:            cfg.Server.APIKey,
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitDisabled: !cfg.RateLimit.Enabled,
		RateLimitCapacity: cfg.RateLimit.Capacity,
		RateLimitRefill:   cfg.RateLimit.RefillPerSec,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout longgar: request pertama setelah dataset basi
		// nunggu refresh selesai dulu sebelum dapat jawaban
		WriteTimeout: cfg.RefreshTimeout() + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", zap.String("addr", addr), zap.String("driver", driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
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
