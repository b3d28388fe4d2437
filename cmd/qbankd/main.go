package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/mindengage-qbank/internal/api/http"
	auth "github.com/mind-engage/mindengage-qbank/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qbank/internal/bank"
	"github.com/mind-engage/mindengage-qbank/internal/config"
	"github.com/mind-engage/mindengage-qbank/internal/db"
)

func main() {
	config.LoadEnv()
	cfg := config.FromEnv()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	// --- Store ---
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer store.Close()

	b := bank.New(store, logger)

	// --- Router ---
	opts := api.Options{
		Bank:           b,
		PublicURL:      cfg.PublicURL,
		CORSOrigins:    cfg.CORSOrigins(),
		RequestTimeout: cfg.RequestTimeout,
		Log:            logger,
	}
	if cfg.EnableAuth {
		opts.Auth = auth.NewAuthService(cfg.AuthHMACSecret)
		opts.Accounts = []auth.Account{
			{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash, Role: "admin"},
			{Username: cfg.EditorUser, PassHash: cfg.EditorPassHash, Role: "editor"},
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s (mode=%s, db=%s, auth=%v)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.EnableAuth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openStore(cfg config.Config) (bank.Store, error) {
	switch cfg.DBDriver {
	case "memory":
		return bank.NewMemoryStore(cfg.SiteID), nil
	case "bolt", "bbolt":
		return bank.OpenBoltStore(cfg.DBDSN, cfg.SiteID)
	}
	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	return bank.NewSQLStore(dbh, cfg.SiteID), nil
}
