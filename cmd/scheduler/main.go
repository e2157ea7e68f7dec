package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	authrepo "terratip_backend/internal/auth/repository"
	authservice "terratip_backend/internal/auth/service"
	"terratip_backend/internal/email"
	"terratip_backend/internal/notification"
	"terratip_backend/internal/scheduler"
	"terratip_backend/platform/config"
	"terratip_backend/platform/db"
	"terratip_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = db.NewPool(ctx, cfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
	if pool == nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	var sender email.Sender = email.NoopSender{}
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
		log.Info("email sender initialized", "host", cfg.GetSMTPHost())
	} else {
		log.Warn("SMTP not configured; reminder emails will be dropped")
	}

	// The worker only delivers reminders; it never books them, so it needs
	// no scheduler client of its own.
	directory := authservice.New(authrepo.New(pool), cfg, log)
	notificationSvc := notification.New(nil, sender, directory, cfg.GetReminderHour(), log)

	worker, err := scheduler.NewWorker(cfg, notificationSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
