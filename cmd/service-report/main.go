package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"didcom/service-report/internal/client"
	"didcom/service-report/internal/config"
	"didcom/service-report/internal/export"
	"didcom/service-report/internal/handler"
	"didcom/service-report/internal/logger"
	"didcom/service-report/internal/router"
	"didcom/service-report/internal/server"
	"didcom/service-report/internal/service"
	"didcom/service-report/internal/session"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file (YAML or .env)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), config.Usage())
	}
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	profile, err := session.ProfileFor(cfg.Variant)
	if err != nil {
		log.Fatal("Invalid report variant", zap.Error(err))
	}

	log.Info("Starting service report server",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
		zap.String("variant", profile.Name),
	)

	primary, err := export.HexColor(cfg.Brand.PrimaryColor)
	if err != nil {
		log.Fatal("Invalid brand colour", zap.Error(err))
	}

	store := session.NewStore(profile, cfg.SessionTTL(), log.Logger)
	defer store.Stop()

	webhookClient := client.NewWebhookClient(cfg.WebhookTimeout(), log.Logger)
	exporter := export.NewExporter(primary, log.Logger)

	reportService := service.NewReportService(
		profile,
		cfg.Webhook,
		cfg.Brand.Name,
		webhookClient,
		exporter,
		log.Logger,
	)

	reportHandler, err := handler.NewReportHandler(reportService, store, cfg.Brand, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize handler", zap.Error(err))
	}

	srv := server.New(cfg.Server.Port, router.New(reportHandler, log.Logger), cfg.WriteTimeout(), log.Logger)

	// Wait for interrupt signal to gracefully shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("Server error", zap.Error(err))
		return
	}
	log.Info("Service report server stopped")
}
