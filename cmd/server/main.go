package main

import (
	"log"
	"log/slog"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Rajbabu19/phonepev2/internal/config"
	apphttp "github.com/Rajbabu19/phonepev2/internal/http"
	"github.com/Rajbabu19/phonepev2/internal/orders"
	"github.com/Rajbabu19/phonepev2/internal/phonepe"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	gw, err := phonepe.NewClient(phonepe.Config{
		ClientID:      cfg.PhonePeClientID,
		ClientSecret:  cfg.PhonePeClientSecret,
		ClientVersion: cfg.PhonePeClientVersion,
		Env:           phonepe.ParseEnv(cfg.PhonePeEnv),
	})
	if err != nil {
		log.Fatalf("failed to initialize PhonePe client: %v", err)
	}

	// Order tracking is optional: without DB_DSN the webhook dispatch
	// only logs what it would have written.
	var store orders.Store = &orders.LogStore{Logger: logger}
	if cfg.DBDSN != "" {
		db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		repo := orders.NewRepo(db)
		repo.SetLogger(logger)
		store = repo
	}

	r := apphttp.NewRouter(apphttp.Deps{
		Logger:          logger,
		Gateway:         gw,
		Orders:          store,
		WebhookUsername: cfg.WebhookUsername,
		WebhookPassword: cfg.WebhookPassword,
	})

	logger.Info("server starting", "port", cfg.Port, "env", cfg.PhonePeEnv)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
