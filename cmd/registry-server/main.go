// Package main provides the standards registry server entry point. It hosts
// the ingestion, framework, readiness, and audit APIs in a single process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang/glog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openesg/standards-registry/pkg/audit"
	"github.com/openesg/standards-registry/pkg/authz"
	"github.com/openesg/standards-registry/pkg/cache"
	"github.com/openesg/standards-registry/pkg/readiness"
	"github.com/openesg/standards-registry/pkg/registry"
)

func main() {
	var (
		listenAddr   string
		databaseType string
		databaseDSN  string
		authMode     string
		cacheTTL     time.Duration
		cacheSize    int
	)

	flag.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	flag.StringVar(&databaseType, "db-type", "postgres", "Database type (postgres, mysql, or sqlite)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.StringVar(&authMode, "auth-mode", "", "Authorization mode (group or none; default group)")
	flag.DurationVar(&cacheTTL, "readiness-cache-ttl", 30*time.Second, "TTL for cached readiness reports")
	flag.IntVar(&cacheSize, "readiness-cache-size", 512, "Max entries in the readiness report cache")
	flag.Parse()

	// Initialize glog for backwards compatibility
	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting registry server",
		"listen", listenAddr,
		"dbType", databaseType,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := setupDatabase(databaseType, databaseDSN)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	registryStore := registry.NewRegistryStore(gormDB)
	if err := registryStore.AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate registry tables: %v", err)
	}

	readinessStore := readiness.NewStore(gormDB)
	if err := readinessStore.AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate readiness tables: %v", err)
	}

	auditCfg := audit.ConfigFromEnv()
	var auditStore *audit.Store
	if auditCfg.Enabled {
		auditStore = audit.NewStore(gormDB)
		if err := auditStore.AutoMigrate(); err != nil {
			glog.Fatalf("Failed to migrate audit tables: %v", err)
		}
	}

	var authorizer authz.Authorizer
	if authMode == "" {
		authMode = envOrDefault("REGISTRY_AUTH_MODE", "group")
	}
	switch authMode {
	case "group":
		groupAuthorizer := authz.NewGroupAuthorizerFromEnv()
		authorizer = groupAuthorizer
		logger.Info("using group-based authorization", "adminGroup", groupAuthorizer.AdminGroup)
	case "none":
		authorizer = authz.AllowAll{}
		logger.Info("authorization disabled, all requests permitted")
	default:
		glog.Fatalf("Unknown auth mode: %q (expected group or none)", authMode)
	}

	readinessCache := cache.NewLRUCache(cacheSize, cacheTTL)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	router.Use(authz.IdentityMiddleware())
	router.Use(audit.Middleware(auditStore, auditCfg, logger))

	startedAt := time.Now()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","uptime":%q}`, time.Since(startedAt).Round(time.Second).String())
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := gormDB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"unavailable","error":%s}`, strconv.Quote(err.Error()))
			return
		}
		fmt.Fprint(w, `{"status":"ready"}`)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/", registry.NewRouter(registryStore, auditStore, authorizer))

		r.Group(func(r chi.Router) {
			r.Use(cache.Middleware(readinessCache))
			r.Mount("/projects", readiness.Router(readinessStore))
		})

		if auditStore != nil {
			r.Mount("/audit", audit.Router(auditStore))
		}
	})

	if auditStore != nil {
		worker := audit.NewRetentionWorker(auditStore, auditCfg.RetentionDays, logger)
		go worker.Run(ctx)
	}

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		logger.Info("registry server ready", "listen", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("registry server stopped")
}

func setupDatabase(dbType, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_DSN")
	}
	if dbType == "" {
		dbType = envOrDefault("DATABASE_TYPE", "postgres")
	}

	if dsn == "" && dbType != "sqlite" {
		return nil, fmt.Errorf("database DSN is required (use -db-dsn flag or DATABASE_DSN environment variable)")
	}

	var dialector gorm.Dialector
	switch dbType {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "registry.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q (expected postgres, mysql, or sqlite)", dbType)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return gormDB, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
