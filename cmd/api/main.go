package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/focus/internal/api"
	"example.com/focus/internal/auth"
	"example.com/focus/internal/classifier"
	"example.com/focus/internal/config"
	"example.com/focus/internal/domain"
	"example.com/focus/internal/outbox"
	persistence "example.com/focus/internal/persistence/postgres"
	"example.com/focus/internal/refresh"
	httptransport "example.com/focus/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
	dispatcher := outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize)

	go dispatcher.Start(ctx)

	var model classifier.Model
	if cfg.ModelURL != "" {
		model = classifier.NewHTTPModel(cfg.ModelURL, cfg.ModelTimeout)
	}
	ruleConfig := classifier.Config{
		HeuristicThresholdSeconds:  cfg.HeuristicThresholdSeconds,
		ModelErrorThresholdSeconds: cfg.ModelErrorThresholdSeconds,
		KeywordThresholdSeconds:    cfg.KeywordThresholdSeconds,
		DefaultUnknownFocused:      cfg.DefaultUnknownFocused,
	}
	rules := classifier.NewSmartRuleSet(ruleConfig, model)
	// Persisted summaries follow the keyword policy, including the
	// unknown-app default; the smart chain serves the analysis endpoints.
	summaryRules := classifier.NewKeywordRuleSet(ruleConfig)

	cache := refresh.NewSnapshotCache(2 * cfg.RefreshInterval)
	source := refresh.NewCachedSource(repo, cache)

	service := domain.NewService(source, repo, classifier.New(rules),
		domain.WithSummaryClassifier(classifier.New(summaryRules)))
	refresher := refresh.NewRefresher(repo, repo, cache, service, cfg.RefreshInterval, cfg.FetchTimeout)

	go refresher.Start(ctx)

	handler := api.NewHandler(service, repo, refresher)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	skipper := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, skipper)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("focus-service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	refresher.Wait()
	dispatcher.Wait()
}
