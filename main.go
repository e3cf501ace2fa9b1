package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/Versteel/Shipping-Form-Creator-sub000/aggregate"
	"github.com/Versteel/Shipping-Form-Creator-sub000/assembly"
	"github.com/Versteel/Shipping-Form-Creator-sub000/config"
	"github.com/Versteel/Shipping-Form-Creator-sub000/journal"
	"github.com/Versteel/Shipping-Form-Creator-sub000/layout"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository"
	"github.com/Versteel/Shipping-Form-Creator-sub000/server"
	"github.com/Versteel/Shipping-Form-Creator-sub000/source"
	"github.com/Versteel/Shipping-Form-Creator-sub000/srvreg"
)

const defaultLogLevel = "info"

var (
	configFile string
	httpPort   string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Config file path (optional)")
	flag.StringVar(&httpPort, "http-port", "", "HTTP web server port (overrides config)")
}

func main() {
	flag.Parse()

	log.Println("=== Starting Shipping Document Service ===")

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	if httpPort != "" {
		cfg.HTTPPort = httpPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Create logger
	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(cfg.LogLevel, logger, defaultLogLevel)
	if err != nil {
		log.Fatalf("Failed to parse log level: %v", err)
	}
	logger.Info("Configuration loaded",
		"http_port", cfg.HTTPPort,
		"source", cfg.SourceEndpoint,
		"database", fmt.Sprintf("%s:%s/%s", cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName))

	// Connect to PostgreSQL Database
	repo := repository.NewRepository(logger.With("module", "repository"))
	if err := repo.ConnectDB(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	table := aggregate.DefaultTable()
	if cfg.FreightTablePath != "" {
		if table, err = aggregate.LoadTable(cfg.FreightTablePath); err != nil {
			log.Fatalf("Loading freight table: %v", err)
		}
	}

	// Snapshot journal
	snapshots, err := journal.Open(cfg.JournalPath, cfg.JournalInMemory, cfg.JournalTTL, logger.With("module", "journal"))
	if err != nil {
		log.Fatalf("Opening snapshot journal: %v", err)
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			logger.Error("Closing snapshot journal", "err", err)
		}
	}()

	// Order system gateway
	client := source.NewClient(cfg.SourceEndpoint, cfg.SourceTimeout, logger.With("module", "source"))
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.HealthCheck(healthCtx); err != nil {
		logger.Error("Order system health check failed; loads will fail until it is reachable", "err", err)
	} else {
		logger.Info("Order system connection verified")
	}
	healthCancel()

	service := assembly.NewService(assembly.Config{
		Source:  client,
		Store:   repo,
		Journal: snapshots,
		Logos:   assembly.LogoSet{Default: cfg.DefaultLogoPath, Special: cfg.SpecialLogoPath},
		Layout: layout.Options{
			Capacity:                cfg.PageCapacity,
			KeepFirstPageBoundaries: cfg.KeepFirstPageBoundaries,
			ExcludedNoteSubstring:   cfg.ExcludedNoteSubstring,
		},
		Table:  table,
		Logger: logger.With("module", "assembly"),
	})

	serviceRegistry := srvreg.NewServiceRegistry(service, client, logger.With("module", "srvreg"))
	serviceRegistry.RegisterDefaultServices()

	webserver := server.NewWebServer(cfg.HTTPPort, serviceRegistry, logger.With("module", "server"))
	if err := webserver.Start(); err != nil {
		log.Fatalf("Starting HTTP server: %v", err)
	}

	logger.Info("=== Shipping Document Service Started ===")
	logger.Info("HTTP API", "url", fmt.Sprintf("http://localhost:%s", cfg.HTTPPort))

	// Wait for interrupt signal to gracefully shut down
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Received shutdown signal, shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := webserver.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP web server", "err", err)
	}
	logger.Info("Shipping document service stopped")
}
