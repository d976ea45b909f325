package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Kerhoff/RemindoT/internal/api"
	"github.com/Kerhoff/RemindoT/internal/config"
	"github.com/Kerhoff/RemindoT/internal/models"
	"github.com/Kerhoff/RemindoT/internal/notify"
	"github.com/Kerhoff/RemindoT/internal/repository"
	"github.com/Kerhoff/RemindoT/internal/repository/postgres"
	"github.com/Kerhoff/RemindoT/internal/service"
	"github.com/Kerhoff/RemindoT/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting RemindoT...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	reminderRepo := postgres.NewReminderRepository(db.DB)
	alertPresetRepo := postgres.NewAlertPresetRepository(db.DB)
	contactPresetRepo := postgres.NewContactPresetRepository(db.DB)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification transports. Channels without configuration stay
	// unregistered; delivery to them is reported as a per-contact failure.
	dispatcher := notify.NewDispatcher(l)
	dispatcher.Register(models.ContactModeSMS, notify.NewStubTransport(models.ContactModeSMS, l))
	dispatcher.Register(models.ContactModeCall, notify.NewStubTransport(models.ContactModeCall, l))

	if cfg.SMTP.Host != "" {
		dispatcher.Register(models.ContactModeEmail, notify.NewEmailTransport(cfg.SMTP, l))
		dispatcher.Register(models.ContactModeICal, notify.NewICalTransport(cfg.SMTP, l))
	}

	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegramTransport(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram transport: %v", err)
		}
		dispatcher.Register(models.ContactModeTelegram, telegram)
	}

	if cfg.FirebaseCredentialsFile != "" {
		push, err := notify.NewPushTransport(ctx, cfg.FirebaseCredentialsFile, l)
		if err != nil {
			l.Fatalf("Failed to create push transport: %v", err)
		}
		dispatcher.Register(models.ContactModePush, push)
	}

	// Service layer
	svc := service.New(l,
		reminderRepo, alertPresetRepo, contactPresetRepo,
		repository.NewNoopCallbackScheduler(), dispatcher, cfg.PollInterval,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Polling deployments run the loop; webhook deployments rely on the
	// external scheduler calling POST /api/alerts/fire.
	if cfg.SchedulerMode == config.ModePoll {
		go svc.StartScheduler(ctx)
	} else {
		l.Info("Scheduler in webhook mode, polling loop disabled")
	}

	// HTTP server
	apiServer := api.NewServer(svc, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	httpLog := logger.WithComponent(l, "http")
	go func() {
		httpLog.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			httpLog.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("RemindoT started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("RemindoT stopped")
}
