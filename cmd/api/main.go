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

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/chat-insight/internal/application"
	appai "github.com/bryanwahyu/chat-insight/internal/application/ai"
	appanalysis "github.com/bryanwahyu/chat-insight/internal/application/analysis"
	appschedule "github.com/bryanwahyu/chat-insight/internal/application/schedule"
	"github.com/bryanwahyu/chat-insight/internal/config"
	domainai "github.com/bryanwahyu/chat-insight/internal/domain/ai"
	"github.com/bryanwahyu/chat-insight/internal/domain/analysis"
	domainschedule "github.com/bryanwahyu/chat-insight/internal/domain/schedule"
	infraai "github.com/bryanwahyu/chat-insight/internal/infra/ai"
	"github.com/bryanwahyu/chat-insight/internal/infra/ai/prompt"
	"github.com/bryanwahyu/chat-insight/internal/infra/chatlog"
	mysqlp "github.com/bryanwahyu/chat-insight/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/chat-insight/internal/infra/db/postgres"
	"github.com/bryanwahyu/chat-insight/internal/infra/httpserver"
	"github.com/bryanwahyu/chat-insight/internal/infra/settings"
	minioStore "github.com/bryanwahyu/chat-insight/internal/infra/storage"
	"github.com/bryanwahyu/chat-insight/internal/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

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

	// connect database
	var db *sql.DB
	var history analysis.HistoryRepository
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		history = mysqlp.NewHistoryRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		history = postgresp.NewHistoryRepository(db)
	default:
		log.Fatalf("unknown database driver %q", cfg.Database.Driver)
	}
	defer db.Close()

	// init report mirror (optional)
	var mirror analysis.ReportMirror
	if cfg.Minio.Enabled {
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
		mirror = store
	}

	// init settings store
	docs, err := settings.Open(cfg.Settings.Dir)
	if err != nil {
		log.Fatalf("settings open error: %v", err)
	}
	defer docs.Close()

	// init chat gateway and prompt builder
	gateway := chatlog.New(cfg.Chatlog.BaseURL)
	prompts := prompt.NewBuilder()

	// init model invoker from the persisted provider choice
	provider, err := infraai.New(providerConfig(docs.Provider()))
	if err != nil {
		log.Fatalf("provider init error: %v", err)
	}
	invoker := appai.NewService(provider)

	// init analysis pipeline
	svc := &appanalysis.Service{
		Gateway: gateway,
		Prompts: prompts,
		Invoker: invoker,
		History: history,
		Mirror:  mirror,
		Clock:   application.SystemClock{},
	}

	batch := appanalysis.NewCoordinator(svc)
	scheduler := appschedule.New(docs, batch, application.SystemClock{})
	if err := scheduler.Reconfigure(docs.Schedule()); err != nil {
		log.Printf("scheduler init: %v", err)
	}

	// settings documents reconfigure running components without restart
	docs.OnScheduleChange(func(sc domainschedule.Config) {
		if err := scheduler.Reconfigure(sc); err != nil {
			log.Printf("scheduler reconfigure: %v", err)
		}
	})
	docs.OnProviderChange(func(pc domainai.Config) {
		p, err := infraai.New(providerConfig(pc))
		if err != nil {
			log.Printf("provider swap rejected: %v", err)
			return
		}
		invoker.SetProvider(p)
		log.Printf("provider switched to %s", p.Name())
	})
	if err := docs.Watch(); err != nil {
		log.Printf("settings watch disabled: %v", err)
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"chatlog":  &middleware.PingHealthChecker{Target: gateway},
	}

	handler := httpserver.NewRouter(svc, batch, scheduler, invoker, docs, gateway, checkers)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // model calls can run for minutes
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

	scheduler.Stop()

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// providerConfig fills missing credentials from the environment so keys
// never have to live in the settings documents.
func providerConfig(cfg domainai.Config) domainai.Config {
	if cfg.APIKey != "" {
		return cfg
	}
	switch cfg.Provider {
	case "gemini":
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	default:
		cfg.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	return cfg
}
