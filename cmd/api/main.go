package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/account"
	accountrepo "github.com/ovaphlow/pitchfork/service-journal-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/connection"
	connectionrepo "github.com/ovaphlow/pitchfork/service-journal-go/internal/connection/repo"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/credential"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/library"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/steam"
	"github.com/ovaphlow/pitchfork/service-journal-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-journal-go/pkg/utilities"
)

func main() {
	// best-effort: without a .env file the real environment is used
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-journal-go")

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := accountrepo.NewUserRepo(sqlxDB)
	connections := connectionrepo.NewConnectionRepo(sqlxDB)
	if err := users.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	if err := connections.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure connections table: %v", err)
	}

	codec, err := credential.New(cfg.Encryption.Key, sugar)
	switch {
	case errors.Is(err, credential.ErrMissingKey):
		sugar.Warn("ENCRYPTION_KEY is not set; linking accounts is disabled and stored values are read as-is")
	case err != nil:
		sugar.Fatalf("encryption key: %v", err)
	}

	steamClient := steam.NewClient(cfg.Steam.APIKey, cfg.Steam.BaseURL, cfg.Steam.Timeout, sugar,
		steam.WithRateLimit(cfg.Steam.RateLimit, cfg.Steam.Burst))
	if !steamClient.Enabled() {
		sugar.Warn("STEAM_API_KEY is not set; steam profile and library data will be empty")
	}
	sessions := session.NewJWTProvider(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)

	connectionSvc := connection.NewService(connections, codec, utilities.NewIDGenerator(cfg.SnowflakeNode), sugar)
	librarySvc := library.NewService(connectionSvc, steamClient, sugar)
	accountSvc := account.NewService(users, nil, sessions, sugar)

	handler := router.RegisterRoutes(sugar, router.Handlers{
		Account:    account.NewHandler(accountSvc, sugar, cfg.Session.SecureCookie),
		Connection: connection.NewHandler(connectionSvc, sessions, sugar),
		Library:    library.NewHandler(librarySvc, sessions, sugar),
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("listening", "addr", cfg.HTTP.Addr)

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
