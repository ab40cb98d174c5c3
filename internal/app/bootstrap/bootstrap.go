package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	catalogservice "paidvote/contexts/awards-voting/catalog-service"
	catalogmemory "paidvote/contexts/awards-voting/catalog-service/adapters/memory"
	catalogpostgres "paidvote/contexts/awards-voting/catalog-service/adapters/postgres"
	"paidvote/contexts/awards-voting/catalog-service/adapters/seedfile"
	catalogcommands "paidvote/contexts/awards-voting/catalog-service/application/commands"
	catalogentities "paidvote/contexts/awards-voting/catalog-service/domain/entities"
	catalogports "paidvote/contexts/awards-voting/catalog-service/ports"
	voteengine "paidvote/contexts/awards-voting/vote-engine"
	votememory "paidvote/contexts/awards-voting/vote-engine/adapters/memory"
	"paidvote/contexts/awards-voting/vote-engine/adapters/notify"
	"paidvote/contexts/awards-voting/vote-engine/adapters/paystack"
	votepostgres "paidvote/contexts/awards-voting/vote-engine/adapters/postgres"
	voteprometheus "paidvote/contexts/awards-voting/vote-engine/adapters/prometheus"
	"paidvote/contexts/awards-voting/vote-engine/domain/entities"
	voteerrors "paidvote/contexts/awards-voting/vote-engine/domain/errors"
	voteports "paidvote/contexts/awards-voting/vote-engine/ports"
	"paidvote/internal/platform/config"
	"paidvote/internal/platform/db"
	"paidvote/internal/platform/httpserver"
	"paidvote/internal/platform/messaging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	worker   *WorkerApp
	database *db.Database
	logger   *slog.Logger
}

type WorkerApp struct {
	runtime       *runtime
	metricsServer *http.Server
	pollInterval  time.Duration
	auditInterval time.Duration
	reconcile     bool
	audit         bool
	logger        *slog.Logger
}

// runtime holds everything both processes construct the same way.
type runtime struct {
	cfg      config.Config
	database *db.Database
	votes    voteengine.Module
	catalog  catalogservice.Module
	bus      *messaging.Bus
	registry *prometheus.Registry
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, "api")

	rt, err := buildRuntime(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &APIApp{
		server:   httpserver.New(rt.votes, rt.catalog, rt.registry, logger, normalizeAddr(cfg.HTTPPort)),
		database: rt.database,
		logger:   logger,
	}
	if cfg.DatabaseDriver == config.DriverMemory {
		// The in-memory ledger is invisible to a separate worker process.
		app.worker = newWorkerApp(rt, false)
	}
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseDriver == config.DriverMemory {
		return nil, errors.New("DATABASE_DRIVER=memory runs the workers inside the api process")
	}
	logger := NewLogger(cfg, "worker")

	rt, err := buildRuntime(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return newWorkerApp(rt, true), nil
}

// RunSeed loads the catalog seed file into the configured database.
func RunSeed(ctx context.Context, path string) (catalogcommands.SeedResult, error) {
	cfg, err := config.Load()
	if err != nil {
		return catalogcommands.SeedResult{}, err
	}
	if cfg.DatabaseDriver == config.DriverMemory {
		return catalogcommands.SeedResult{}, errors.New("seeding an in-memory catalog has no lasting effect; set DATABASE_DRIVER")
	}
	if strings.TrimSpace(path) != "" {
		cfg.SeedFile = path
	}
	cfg.SeedOnStart = false
	logger := NewLogger(cfg, "seed")

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return catalogcommands.SeedResult{}, err
	}
	defer rt.close()
	return seedCatalog(ctx, rt)
}

// SetCategoryActive opens or closes voting for one category in the
// configured database. Vote counts are left untouched.
func SetCategoryActive(ctx context.Context, categoryID string, active bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseDriver == config.DriverMemory {
		return errors.New("changing an in-memory catalog has no lasting effect; set DATABASE_DRIVER")
	}
	cfg.SeedOnStart = false
	logger := NewLogger(cfg, "seed")

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()
	return setCategoryActive(ctx, rt, categoryID, active)
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func NewLogger(cfg config.Config, process string) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, options)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler).With("service", cfg.ServiceName, "process", process)
}

func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := voteprometheus.NewMetrics(registry)
	bus := messaging.NewBus(cfg.EventBusBuffer, logger)

	intents, verifier := paymentProvider(cfg, logger)
	deps := voteengine.Dependencies{
		Intents:         intents,
		Verifier:        verifier,
		Webhooks:        paystack.WebhookVerifier{SecretKey: cfg.PaystackSecretKey},
		Publisher:       bus,
		Subscriber:      bus,
		Receipts:        notify.NewLogReceiptSender(logger, 256),
		Metrics:         metrics,
		Clock:           votepostgres.SystemClock{},
		IDGen:           votepostgres.UUIDGenerator{},
		VotePriceMinor:  cfg.VotePriceMinor,
		Currency:        cfg.VoteCurrency,
		PendingVoteTTL:  cfg.PendingVoteTTL,
		ReconcileMinAge: cfg.ReconcileMinAge,
		VerifyTimeout:   cfg.VerifyTimeout,
		StoreTimeout:    cfg.StoreTimeout,
		IdempotencyTTL:  cfg.IdempotencyTTL,
		Logger:          logger,
	}

	rt := &runtime{cfg: cfg, bus: bus, registry: registry, logger: logger}
	var catalogRepo catalogports.CatalogRepository
	var ledger *votememory.Store
	if cfg.DatabaseDriver == config.DriverMemory {
		ledger = votememory.NewStore(nil)
		deps.Ledger = ledger
		deps.Idempotency = ledger
		deps.Outbox = ledger
		deps.Dedup = ledger
		catalogRepo = catalogmemory.NewRepository(ledger.VoteCount)
	} else {
		database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		rt.database = database
		// The catalog owns categories and contestants; the ledger joins them.
		if err := catalogpostgres.AutoMigrate(database.DB); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrate catalog: %w", err)
		}
		if err := votepostgres.AutoMigrate(database.DB); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrate ledger: %w", err)
		}
		repo := votepostgres.NewRepository(database.DB, logger)
		deps.Ledger = repo
		deps.Idempotency = repo
		deps.Outbox = repo
		deps.Dedup = repo
		catalogRepo = catalogpostgres.NewRepository(database.DB, logger)
	}

	rt.votes = voteengine.NewModule(deps)
	rt.votes.Store = ledger
	rt.catalog = catalogservice.NewModule(catalogservice.Dependencies{
		Repo:     catalogRepo,
		Clock:    votepostgres.SystemClock{},
		CacheTTL: cfg.CountCacheTTL,
		Logger:   logger,
	})
	if memoryRepo, ok := catalogRepo.(*catalogmemory.Repository); ok {
		rt.catalog.Store = memoryRepo
	}

	if cfg.SeedOnStart {
		if _, err := seedCatalog(ctx, rt); err != nil {
			rt.close()
			return nil, err
		}
	}
	return rt, nil
}

func paymentProvider(cfg config.Config, logger *slog.Logger) (voteports.PaymentIntents, voteports.PaymentVerifier) {
	if cfg.PaystackMock {
		logger.Warn("mock payment gateway enabled",
			"event", "bootstrap_mock_payments_enabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		gateway := votememory.NewGateway(entities.PaymentStatusSucceeded, cfg.VoteCurrency)
		return gateway, gateway
	}
	client := paystack.NewClient(paystack.Config{
		BaseURL:     cfg.PaystackBaseURL,
		SecretKey:   cfg.PaystackSecretKey,
		CallbackURL: cfg.PaystackCallbackURL,
		Timeout:     cfg.VerifyTimeout,
		RetryMax:    cfg.PaystackRetryMax,
		Logger:      logger,
	})
	return client, client
}

func seedCatalog(ctx context.Context, rt *runtime) (catalogcommands.SeedResult, error) {
	cmd, err := seedfile.FromFile(rt.cfg.SeedFile)
	if err != nil {
		return catalogcommands.SeedResult{}, err
	}
	result, err := rt.catalog.Catalog.SeedCatalog(ctx, cmd)
	if err != nil {
		return result, err
	}
	if rt.votes.Store != nil && rt.catalog.Store != nil {
		if err := SyncLedgerProjection(ctx, rt.catalog.Store, rt.votes.Store); err != nil {
			return result, err
		}
	}
	rt.logger.Info("catalog seeded",
		"event", "bootstrap_catalog_seeded",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"seed_file", rt.cfg.SeedFile,
		"categories", result.Categories,
		"contestants", result.Contestants,
	)
	return result, nil
}

func setCategoryActive(ctx context.Context, rt *runtime, categoryID string, active bool) error {
	if err := rt.catalog.Catalog.SetCategoryActive(ctx, categoryID, active); err != nil {
		return err
	}
	if rt.votes.Store != nil && rt.catalog.Store != nil {
		return SyncLedgerProjection(ctx, rt.catalog.Store, rt.votes.Store)
	}
	return nil
}

// SyncLedgerProjection copies catalog contestants into an in-memory ledger.
// SQL deployments share one contestants table and never need it.
func SyncLedgerProjection(ctx context.Context, catalog *catalogmemory.Repository, ledger *votememory.Store) error {
	categories, err := catalog.ListCategories(ctx, false)
	if err != nil {
		return err
	}
	byID := make(map[string]catalogentities.Category, len(categories))
	for _, category := range categories {
		byID[category.CategoryID] = category
	}
	for _, contestant := range catalog.Contestants() {
		category := byID[contestant.CategoryID]
		ledger.SetContestant(entities.ContestantProjection{
			ContestantID:   contestant.ContestantID,
			CategoryID:     contestant.CategoryID,
			CategoryName:   category.Name,
			CategoryActive: category.Active,
			Name:           contestant.Name,
			PhotoRef:       contestant.PhotoRef,
		})
	}
	return nil
}

func newWorkerApp(rt *runtime, serveMetrics bool) *WorkerApp {
	worker := &WorkerApp{
		runtime:       rt,
		pollInterval:  rt.cfg.WorkerPollInterval,
		auditInterval: rt.cfg.AuditInterval,
		reconcile:     rt.cfg.EnableReconciler,
		audit:         rt.cfg.EnableAuditor,
		logger:        rt.logger,
	}
	if worker.pollInterval <= 0 {
		worker.pollInterval = 2 * time.Second
	}
	if serveMetrics && rt.cfg.WorkerMetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
		worker.metricsServer = &http.Server{
			Addr:              normalizeAddr(rt.cfg.WorkerMetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return worker
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_workers", a.worker != nil,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	if a.worker != nil {
		g.Go(func() error { return a.worker.Run(ctx) })
	}
	return g.Wait()
}

func (a *APIApp) Close() error {
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}

// Run drives the background jobs until ctx is cancelled. Each cycle
// reconciles before sweeping so an abandoned checkout that was paid late is
// committed rather than expired.
func (w *WorkerApp) Run(ctx context.Context) error {
	votes := w.runtime.votes
	g, gctx := errgroup.WithContext(ctx)
	if err := votes.Consumer.Start(gctx); err != nil {
		return err
	}

	if w.metricsServer != nil {
		g.Go(func() error {
			err := w.metricsServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return w.metricsServer.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error { return w.loop(gctx) })

	err := g.Wait()
	w.runtime.bus.Wait()
	return err
}

// loop runs until ctx is cancelled. A failing job is logged and retried on
// the next tick; it never stops the other jobs.
func (w *WorkerApp) loop(ctx context.Context) error {
	votes := w.runtime.votes
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"audit_interval", w.auditInterval.String(),
	)

	var lastAudit time.Time
	for {
		if w.reconcile {
			w.runJob(ctx, "pending_reconciler", func(ctx context.Context) error {
				_, err := votes.Reconciler.RunOnce(ctx)
				return err
			})
		}
		w.runJob(ctx, "pending_sweeper", func(ctx context.Context) error {
			_, err := votes.Sweeper.RunOnce(ctx)
			return err
		})
		if w.audit && time.Since(lastAudit) >= w.auditInterval {
			w.runJob(ctx, "counter_auditor", func(ctx context.Context) error {
				_, err := votes.Auditor.RunOnce(ctx)
				return err
			})
			lastAudit = time.Now()
		}
		w.runJob(ctx, "outbox_relay", func(ctx context.Context) error {
			_, err := votes.Relay.RunOnce(ctx)
			return err
		})
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) runJob(ctx context.Context, job string, run func(context.Context) error) {
	err := run(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	level := slog.LevelError
	if transientJobError(err) {
		level = slog.LevelWarn
	}
	w.logger.Log(ctx, level, "worker job failed, retrying next tick",
		"event", "bootstrap_worker_job_failed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"job", job,
		"transient", level == slog.LevelWarn,
		"error", err.Error(),
	)
}

func transientJobError(err error) bool {
	return errors.Is(err, voteerrors.ErrStoreUnavailable) ||
		errors.Is(err, voteerrors.ErrPaymentProviderUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (w *WorkerApp) Close() error {
	return w.runtime.close()
}

func (rt *runtime) close() error {
	if rt.database != nil {
		return rt.database.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
