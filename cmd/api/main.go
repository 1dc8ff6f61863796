package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/aidbridge/aidbridge/internal/campaign"
	campaignStore "github.com/aidbridge/aidbridge/internal/campaign/store"
	"github.com/aidbridge/aidbridge/internal/config"
	"github.com/aidbridge/aidbridge/internal/database"
	aidbridgeHttp "github.com/aidbridge/aidbridge/internal/http"
	campaignHandler "github.com/aidbridge/aidbridge/internal/http/campaign"
	claimHandler "github.com/aidbridge/aidbridge/internal/http/claim"
	merchantHandler "github.com/aidbridge/aidbridge/internal/http/merchant"
	"github.com/aidbridge/aidbridge/internal/ledger"
	"github.com/aidbridge/aidbridge/internal/merchant"
	merchantStore "github.com/aidbridge/aidbridge/internal/merchant/store"
	"github.com/aidbridge/aidbridge/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client, err := database.New(cfg.Mongo.URI)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.Mongo.Database)
	asset := cfg.PlatformAsset()

	var (
		campaigns = campaignStore.New(db)
		merchants = merchantStore.New(db, asset)
	)

	if err := campaigns.EnsureIndexes(context.Background()); err != nil {
		slog.Error("failed to create campaign indexes", "error", err)
		os.Exit(1)
	}

	if err := merchants.EnsureIndexes(context.Background()); err != nil {
		slog.Error("failed to create merchant indexes", "error", err)
		os.Exit(1)
	}

	var (
		campaignService = campaign.NewService(campaigns)
		merchantService = merchant.NewService(merchants, asset)
		horizon         = ledger.New(ledger.Config{
			BaseURL:   cfg.Horizon.URL,
			Timeout:   cfg.Horizon.Timeout,
			MaxTries:  cfg.Horizon.MaxTries,
			RetryBase: cfg.Horizon.RetryBase,
			RetryCap:  cfg.Horizon.RetryCap,
		})
		reconciler = reconcile.New(horizon, campaignService, merchantService, cfg.Reconcile.MinConfirmations)
	)

	var (
		claimH    = claimHandler.NewHandler(reconciler, asset)
		campaignH = campaignHandler.NewHandler(campaignService, asset)
		merchantH = merchantHandler.NewHandler(merchantService)
	)

	router := aidbridgeHttp.New(claimH, campaignH, merchantH, cfg.CORS.Origin)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port, "horizon", cfg.Horizon.URL)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
