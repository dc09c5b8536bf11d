package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/config"
	"github.com/xavierca1/products-cms/internal/entity"
	"github.com/xavierca1/products-cms/internal/infra/database"
	"github.com/xavierca1/products-cms/internal/infra/http/handlers"
	"github.com/xavierca1/products-cms/internal/infra/http/middleware"
	"github.com/xavierca1/products-cms/internal/infra/integration/productapi"
	"github.com/xavierca1/products-cms/internal/infra/mail"
	"github.com/xavierca1/products-cms/internal/infra/queue"
	"github.com/xavierca1/products-cms/internal/infra/worker"
	"github.com/xavierca1/products-cms/internal/logger"
	"github.com/xavierca1/products-cms/internal/usecase"
)

func main() {
	cfg := config.Load("products-cms")

	log, err := logger.Init(&logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting products console", cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Audit storage (optional)
	var (
		db        *sql.DB
		auditRepo entity.AuditRepositoryInterface
	)
	if cfg.DatabaseURL != "" {
		db, err = database.NewDBConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("❌ Database unavailable", zap.Error(err))
		}
		defer db.Close()

		repo := database.NewAuditRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal("❌ Audit schema", zap.Error(err))
		}
		auditRepo = repo
	}

	// 2. Audit broker, worker and publish notices (optional)
	var (
		rabbitConn *amqp091.Connection
		publisher  usecase.AuditPublisher
	)
	if cfg.AMQPURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			log.Fatal("❌ RabbitMQ unavailable", zap.Error(err))
		}
		defer rabbitMQ.Close()
		rabbitConn = rabbitMQ.Conn
		publisher = queue.NewProducer(rabbitMQ.Ch)

		if auditRepo != nil {
			var notifier queue.PublishNotifier
			if cfg.Mail.Enabled() {
				sender := mail.NewEmailSender(
					cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password,
					cfg.Mail.From, cfg.Mail.NotifyTo,
				)
				sender.ConsoleURL = cfg.Mail.ConsoleURL
				notifier = sender
			}
			// The worker consumes on its own channel.
			ch, err := rabbitMQ.Conn.Channel()
			if err != nil {
				log.Fatal("❌ RabbitMQ consumer channel", zap.Error(err))
			}
			auditWorker := queue.NewWorker(ch, auditRepo, notifier, log)
			go func() {
				if err := auditWorker.Start(ctx, queue.QueueName); err != nil {
					log.Error("❌ Audit worker stopped", zap.Error(err))
				}
			}()
		}
	} else {
		log.Warn("⚠️ AMQP_URL not set, audit events are not recorded")
	}

	// 3. Product API and console sessions
	apiClient := productapi.NewClient(cfg.ProductAPI.BaseURL, cfg.ProductAPI.Timeout, log)
	store := usecase.NewConsoleStore(func() *usecase.Console {
		return usecase.NewConsole(apiClient, publisher)
	})

	limiter := middleware.NewRateLimiter(cfg.Console.WriteRateLimit, cfg.Console.WriteWindow)
	reaper := worker.NewSessionReaper(store, cfg.Console.SessionIdle, cfg.Console.ReapInterval, log)
	reaper.Sweepers = append(reaper.Sweepers, limiter.Cleanup)
	go reaper.Start(ctx)

	// 4. Router
	router := handlers.NewRouter(handlers.RouterConfig{
		Console: handlers.NewConsoleHandler(store),
		Audit:   handlers.NewAuditHandler(auditRepo),
		Health:  handlers.NewHealthHandler(apiClient, db, rabbitConn),
		Session: handlers.SessionConfig{
			CookieName:   cfg.Console.SessionCookie,
			ActorHeader:  cfg.Console.ActorHeader,
			DefaultActor: cfg.Console.DefaultActor,
			Secure:       cfg.Server.Env == "production",
			TokenSecret:  []byte(cfg.Console.TokenSecret),
		},
		WriteLimiter: limiter,
		CORSOrigins:  cfg.Console.CORSOrigins,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🔥 Products console listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("❌ Graceful shutdown failed", zap.Error(err))
	}
}
