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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/safemeds/safemeds/internal/application"
	appanalysis "github.com/safemeds/safemeds/internal/application/analysis"
	appcabinet "github.com/safemeds/safemeds/internal/application/cabinet"
	appprofiles "github.com/safemeds/safemeds/internal/application/profiles"
	"github.com/safemeds/safemeds/internal/config"
	"github.com/safemeds/safemeds/internal/domain/analysis"
	"github.com/safemeds/safemeds/internal/domain/cabinet"
	"github.com/safemeds/safemeds/internal/domain/faults"
	"github.com/safemeds/safemeds/internal/domain/profiles"
	aiclient "github.com/safemeds/safemeds/internal/infra/ai/openai"
	mysqlp "github.com/safemeds/safemeds/internal/infra/db/mysql"
	postgresp "github.com/safemeds/safemeds/internal/infra/db/postgres"
	"github.com/safemeds/safemeds/internal/infra/httpserver"
	"github.com/safemeds/safemeds/internal/infra/openfda"
	minioStore "github.com/safemeds/safemeds/internal/infra/storage"
	"github.com/safemeds/safemeds/internal/middleware"
)

// repos groups the per-driver repository set
type repos struct {
	analyses analysis.Repository
	profiles profiles.Repository
	cabinet  cabinet.Repository
	faults   faults.Repository
}

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

	ctx := context.Background()

	// connect database per driver
	db, rp, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database connect error: %v", err)
	}
	defer db.Close()

	// init minio, optional: image archiving is skipped without an endpoint
	var images analysis.ImageStore
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
		images = store
	} else {
		log.Println("minio endpoint not configured, scan photos will not be archived")
	}

	// init external clients
	ai := aiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	labels := openfda.NewClient(cfg.OpenFDA.BaseURL)

	clock := application.SystemClock{}

	// init services
	analysisSvc := &appanalysis.Service{
		Repo:   rp.analyses,
		AI:     ai,
		Labels: labels,
		Images: images,
		Faults: rp.faults,
		Clock:  clock,
	}
	profilesSvc := appprofiles.NewService(rp.profiles, clock)
	cabinetSvc := appcabinet.NewService(rp.cabinet, clock)

	health := middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	})

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	mux.Use(limiter.Middleware)

	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	} else {
		log.Println("no API keys configured, auth disabled")
	}

	mux.Mount("/", httpserver.NewRouter(analysisSvc, profilesSvc, cabinetSvc, health))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, repos, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, repos{}, err
		}
		return db, repos{
			analyses: postgresp.NewAnalysisRepository(db),
			profiles: postgresp.NewProfileRepository(db),
			cabinet:  postgresp.NewCabinetRepository(db),
			faults:   postgresp.NewFaultRepository(db),
		}, nil
	case "mysql", "":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, repos{}, err
		}
		return db, repos{
			analyses: mysqlp.NewAnalysisRepository(db),
			profiles: mysqlp.NewProfileRepository(db),
			cabinet:  mysqlp.NewCabinetRepository(db),
			faults:   mysqlp.NewFaultRepository(db),
		}, nil
	default:
		return nil, repos{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORS.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORS.AllowedOrigins
}
