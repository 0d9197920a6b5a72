package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayhub/internal/app/notify"
	"stayhub/internal/app/services/auth"
	"stayhub/internal/app/services/bookings"
	"stayhub/internal/app/services/listings"
	"stayhub/internal/app/services/messages"
	"stayhub/internal/app/services/payments"
	"stayhub/internal/app/uow"
	domainauth "stayhub/internal/domain/auth"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/broker/kafka"
	"stayhub/internal/infra/config"
	mongodb "stayhub/internal/infra/db/mongo"
	"stayhub/internal/infra/gateway/chapa"
	ginserver "stayhub/internal/infra/http/gin"
	"stayhub/internal/infra/mailer"
	"stayhub/internal/infra/obs"
	"stayhub/internal/infra/outbox"
	"stayhub/internal/infra/security"
	"stayhub/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, run := range app.background {
		go run(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	background []func(context.Context)
	ready      func() error
	cleanups   []func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		uowFactory  uow.Factory
		userRepo    domainuser.Repository
		sessions    domainauth.SessionStore
		outboxStore outbox.Store
		dedupeStore notify.DedupeStore
	)
	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		app.cleanups = append(app.cleanups, func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Close(closeCtx)
		})
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		factory := mongodb.NewFactory(client.DB)
		uowFactory = factory
		userRepo = factory.UsersRepo
		sessions = mongodb.NewSessionStore(client.DB)
		outboxStore = mongodb.NewOutboxStore(client.DB)
		dedupeStore = mongodb.NewDedupeStore(client.DB)
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		logger.Info("storage ready", "backend", "mongo", "database", cfg.MongoDB)
	} else {
		factory := memory.NewFactory()
		uowFactory = factory
		userRepo = factory.UsersRepo
		sessions = memory.NewSessionStore()
		outboxStore = memory.NewOutboxStore()
		dedupeStore = memory.NewDedupeStore()
		logger.Warn("MONGO_URI not set, using in-memory storage")
	}

	notifier := outbox.Dispatcher{Store: outboxStore}

	gateway := chapa.NewClient(chapa.Config{
		SecretKey: cfg.ChapaSecretKey,
		BaseURL:   cfg.ChapaBaseURL,
		Timeout:   cfg.ChapaTimeout,
	}, logger)

	authSvc := &auth.Service{
		Users:      userRepo,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	listingSvc := &listings.Service{UoW: uowFactory, Logger: logger}
	bookingSvc := &bookings.Service{UoW: uowFactory, Notifier: notifier, Logger: logger}
	paymentSvc := &payments.Service{
		UoW:      uowFactory,
		Gateway:  gateway,
		Notifier: notifier,
		Dedupe:   dedupeStore,
		Currency: cfg.Currency,
		Logger:   logger,
	}
	messageSvc := &messages.Service{UoW: uowFactory}

	if cfg.SeedDemoData {
		if err := seedDemoData(ctx, logger, authSvc, listingSvc, userRepo, cfg.Currency); err != nil {
			return nil, err
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, err
		}
		app.cleanups = append(app.cleanups, producer.Close)
		worker := &outbox.Worker{
			Store:    outboxStore,
			Producer: producer,
			Topic:    cfg.KafkaTopicPrefix + cfg.NotifyTopic,
			Interval: cfg.OutboxPollInterval,
			Backoff:  cfg.RetryBackoff,
			Logger:   logger,
		}
		app.background = append(app.background, func(ctx context.Context) {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		})

		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.NotifyGroup, nil, mailer.Handler{
			Sender: mailer.SMTPSender{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom},
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		app.cleanups = append(app.cleanups, consumer.Close)
		topic := cfg.KafkaTopicPrefix + cfg.NotifyTopic
		app.background = append(app.background, func(ctx context.Context) {
			if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mail consumer stopped", "error", err)
			}
		})
	} else {
		logger.Warn("KAFKA_BROKERS not set, notification jobs stay queued in the outbox")
	}

	app.handlers = ginserver.Handlers{
		Auth:    ginserver.AuthHandler{Service: authSvc, Logger: logger},
		Listing: ginserver.ListingHandler{Service: listingSvc, Currency: cfg.Currency, Logger: logger},
		Booking: ginserver.BookingHandler{Service: bookingSvc, Logger: logger},
		Payment: ginserver.PaymentHandler{
			Service:       paymentSvc,
			PublicBaseURL: cfg.PublicBaseURL,
			Currency:      cfg.Currency,
			Logger:        logger,
		},
		Message:        ginserver.MessageHandler{Service: messageSvc, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authSvc, Logger: logger}.Handle,
	}
	return app, nil
}

func (a *application) close(logger *slog.Logger) {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			logger.Warn("cleanup failed", "error", err)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
