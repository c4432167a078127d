// cmd/nsa-scheduler/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nsa-scheduler/internal/audit"
	commonaws "nsa-scheduler/internal/common/aws"
	"nsa-scheduler/internal/common/config"
	"nsa-scheduler/internal/common/database"
	"nsa-scheduler/internal/common/logger"
	"nsa-scheduler/internal/common/observability"
	"nsa-scheduler/internal/dealer"
	"nsa-scheduler/internal/dedup"
	"nsa-scheduler/internal/extract"
	"nsa-scheduler/internal/history"
	"nsa-scheduler/internal/models"
	"nsa-scheduler/internal/notify"
	"nsa-scheduler/internal/opcode"
	"nsa-scheduler/internal/provider/mykaarma"
	"nsa-scheduler/internal/report"
	"nsa-scheduler/internal/scheduler"
	"nsa-scheduler/internal/template"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	var (
		mode       = flag.String("mode", "schedule", "extract, schedule, or run (extract then schedule)")
		configPath = flag.String("config", "", "config file path (defaults to configs/config.yaml)")
		dealerID   = flag.String("dealer", "", "dealer id to extract (extract and run modes)")
		closeDate  = flag.String("date", "", "close date YYYY-MM-DD to extract (extract and run modes)")
		inPath     = flag.String("in", "closed_ros.xlsx", "extraction workbook to schedule from")
		outPath    = flag.String("out", "schedule_results.xlsx", "results workbook path")
		decision   = flag.String("decision", "skip", "duplicate handling: skip or recreate")
	)
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting next-service scheduler...")

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	if *decision != string(models.DecisionSkip) && *decision != string(models.DecisionRecreate) {
		zapLog.Fatal("invalid -decision value", zap.String("decision", *decision))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Dealer registry and opcode catalogs ---
	registry, err := dealer.Load(cfg.Dealers.RegistryPath)
	if err != nil {
		zapLog.Fatal("dealer registry load failed", zap.Error(err))
	}
	zapLog.Info("Dealer registry loaded", zap.Int("dealers", registry.Len()))

	catalogs := make(map[string]map[string]string, registry.Len())
	for _, profile := range registry.All() {
		if profile.OpcodeWorkbook == "" {
			catalogs[profile.ID] = map[string]string{}
			continue
		}
		catalog, err := opcode.LoadWorkbook(profile.OpcodeWorkbook)
		if err != nil {
			zapLog.Fatal("opcode workbook load failed",
				zap.String("dealer", profile.ID), zap.Error(err))
		}
		catalogs[profile.ID] = catalog
	}

	// --- Provider client ---
	client := mykaarma.NewClient(cfg.Provider, log)

	// --- Dedup cache ---
	var store dedup.Store
	switch cfg.Cache.Backend {
	case "redis":
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		store = dedup.NewRedisStore(redisClient.Client)
	default:
		store, err = dedup.NewFileStore(cfg.Cache.Path)
		if err != nil {
			zapLog.Fatal("dedup cache open failed", zap.Error(err))
		}
	}
	defer store.Close()
	zapLog.Info("Dedup cache ready", zap.String("backend", cfg.Cache.Backend))

	// --- Notification layer ---
	notifier, err := buildNotifier(ctx, cfg, client, log)
	if err != nil {
		zapLog.Fatal("notifier setup failed", zap.Error(err))
	}

	// --- Run history (optional) ---
	var historyStore *history.Store
	if cfg.History.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		historyStore = history.New(pg.DB, log)
		if err := historyStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("history schema failed", zap.Error(err))
		}
		zapLog.Info("Run history enabled")
	}

	// --- Audit sink (optional) ---
	var auditSink *audit.Sink
	if cfg.Audit.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		auditSink = audit.New(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Audit sink enabled", zap.String("index", cfg.Database.Elasticsearch.Index))
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful cancellation ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		zapLog.Info("Shutdown signal received, finishing in-flight records...",
			zap.String("signal", sig.String()))
		cancel()
	}()

	// --- Extract ---
	var records []models.ServiceRecord
	switch *mode {
	case "extract", "run":
		profile, day := resolveExtractArgs(registry, *dealerID, *closeDate, zapLog)
		extractor := extract.New(client, 100, log)
		records, err = extractor.Extract(ctx, profile, catalogs[profile.ID], day)
		if err != nil {
			zapLog.Fatal("extraction failed", zap.Error(err))
		}
		if err := report.WriteRecords(*inPath, records); err != nil {
			zapLog.Fatal("extraction workbook write failed", zap.Error(err))
		}
		zapLog.Info("Extraction complete",
			zap.Int("records", len(records)), zap.String("workbook", *inPath))
		if *mode == "extract" {
			return
		}
	case "schedule":
		records, err = report.ReadRecords(*inPath)
		if err != nil {
			zapLog.Fatal("extraction workbook read failed", zap.Error(err))
		}
		zapLog.Info("Records loaded",
			zap.Int("records", len(records)), zap.String("workbook", *inPath))
	default:
		zapLog.Fatal("invalid -mode value", zap.String("mode", *mode))
	}

	// --- Schedule ---
	opts := scheduler.Options{
		Config:         cfg.Scheduler,
		Provider:       client,
		Store:          store,
		Registry:       registry,
		Catalogs:       catalogs,
		Logger:         log,
		Obs:            obs,
		RequestsPerSec: float64(cfg.Provider.RequestsPerSec),
	}
	if notifier != nil {
		opts.Notifier = notifier
	}
	sched := scheduler.New(opts)

	runID := uuid.NewString()
	zapLog.Info("Scheduling run starting",
		zap.String("run_id", runID), zap.Int("records", len(records)))
	results := sched.Run(ctx, records, models.Decision(*decision))

	if err := report.WriteResults(*outPath, records, results); err != nil {
		zapLog.Error("results workbook write failed", zap.Error(err))
	}
	if historyStore != nil {
		if err := historyStore.SaveRun(ctx, runID, results); err != nil {
			zapLog.Error("run history write failed", zap.Error(err))
		}
	}
	if auditSink != nil {
		indexed := auditSink.IndexRun(ctx, runID, results)
		zapLog.Info("Outcomes indexed", zap.Int("indexed", indexed))
	}

	tally := make(map[models.Outcome]int)
	for _, r := range results {
		tally[r.Outcome]++
	}
	zapLog.Info("Scheduling run finished",
		zap.String("run_id", runID),
		zap.Int("done", tally[models.OutcomeDone]),
		zap.Int("skipped_duplicate", tally[models.OutcomeSkippedDuplicate]),
		zap.Int("slot_exhausted", tally[models.OutcomeSlotExhausted]),
		zap.Int("failed", tally[models.OutcomeFailed]),
		zap.String("workbook", *outPath),
	)
}

func buildNotifier(ctx context.Context, cfg *config.Config, client *mykaarma.Client, log logger.Logger) (*notify.Notifier, error) {
	if !cfg.Notifications.Email.Enabled && !cfg.Notifications.Text.Enabled {
		return nil, nil
	}

	var emailTmpl, textTmpl *template.Template
	var err error
	if cfg.Notifications.Email.Enabled {
		emailTmpl, err = template.LoadFile(cfg.Templates.EmailPath, template.ShapeEmail)
		if err != nil {
			return nil, fmt.Errorf("email template: %w", err)
		}
	}
	if cfg.Notifications.Text.Enabled {
		textTmpl, err = template.LoadFile(cfg.Templates.TextPath, template.ShapeText)
		if err != nil {
			return nil, fmt.Errorf("text template: %w", err)
		}
	}

	var sender notify.Sender
	switch cfg.Notifications.Backend {
	case "aws":
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		sender = notify.NewAWSSender(sesClient, snsClient, cfg.Notifications.Email.FromEmail)
	default:
		sender = notify.NewAPISender(client)
	}

	return notify.New(cfg.Notifications, emailTmpl, textTmpl, sender, log), nil
}

func resolveExtractArgs(registry *dealer.Registry, dealerID, closeDate string, zapLog *zap.Logger) (dealer.Profile, time.Time) {
	if dealerID == "" {
		zapLog.Fatal("extract mode requires -dealer")
	}
	profile, ok := registry.Get(dealerID)
	if !ok {
		zapLog.Fatal("dealer not in registry", zap.String("dealer", dealerID))
	}
	if closeDate == "" {
		zapLog.Fatal("extract mode requires -date")
	}
	day, err := time.Parse("2006-01-02", closeDate)
	if err != nil {
		zapLog.Fatal("invalid -date value", zap.String("date", closeDate), zap.Error(err))
	}
	return profile, day
}
