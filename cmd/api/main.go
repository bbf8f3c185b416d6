package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fraxion.org/internal/account"
	"fraxion.org/internal/auth"
	"fraxion.org/internal/chain"
	"fraxion.org/internal/config"
	"fraxion.org/internal/httpapi"
	"fraxion.org/internal/obs"
	"fraxion.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	accounts, err := account.NewService(store)
	if err != nil {
		log.Fatalf("account service: %v", err)
	}

	ledger, err := chain.NewClient(cfg.ChainRPCURL, cfg.RegistryAddress)
	if err != nil {
		log.Fatalf("chain client: %v", err)
	}

	issuer, err := auth.NewIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	authSvc, err := auth.NewService(ledger, accounts, issuer, cfg.LoginChallenge)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	api := httpapi.New(
		httpapi.ReadyProbe{DB: store.DB()},
		version,
		authSvc,
		accounts,
		ledger,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting fraxion-admin-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
