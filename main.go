package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"scenario-cloud/internal/audit"
	"scenario-cloud/internal/auth"
	engineapp "scenario-cloud/internal/engine/application"
	enginerepo "scenario-cloud/internal/engine/infrastructure/postgres"
	enginehttp "scenario-cloud/internal/engine/interfaces/http"
	enginenotify "scenario-cloud/internal/engine/notify"
	"scenario-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	ctx := context.Background()
	if err := enginerepo.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("engine schema error: %v", err)
	}
	if err := audit.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("audit schema error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	engineCfg, err := engineapp.LoadConfig()
	if err != nil {
		logger.Fatalf("engine config error: %v", err)
	}

	repos := engineapp.Repositories{
		Scenarios: enginerepo.NewScenarioRepository(db),
		BOQ:       enginerepo.NewBOQRepository(db),
		Services:  enginerepo.NewServiceRepository(db),
		Policies:  enginerepo.NewPolicyRepository(db),
		Index:     enginerepo.NewIndexRepository(db),
		Rebates:   enginerepo.NewRebateRepository(db),
		Fx:        enginerepo.NewFxRepository(db),
		Tax:       enginerepo.NewTaxRepository(db),
		Capex:     enginerepo.NewCapexRepository(db),
	}
	factStore := enginerepo.NewFactStore(db)

	engineService, err := engineapp.NewService(repos, factStore, engineapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("engine service error: %v", err)
	}

	var notifier enginehttp.RunCompletedNotifier
	if engineCfg.WebhookURL != "" {
		notifier = enginenotify.NewWebhookNotifier(engineCfg.WebhookURL, logger)
	}
	engineHandler, err := enginehttp.NewHandler(engineService, factStore, notifier, auditRepo, logger)
	if err != nil {
		logger.Fatalf("engine handler error: %v", err)
	}

	if len(engineCfg.Schedule.Scenarios) > 0 {
		scheduler := engineapp.NewScheduler(engineService, engineCfg, logger)
		go scheduler.Start(ctx)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/scenarios/", engineHandler)
	mux.Handle("/api/v1/runs/", engineHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
