package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dpaschgit/lbaasv1/internal/config"
	"github.com/dpaschgit/lbaasv1/internal/handler"
	"github.com/dpaschgit/lbaasv1/internal/integrations"
	"github.com/dpaschgit/lbaasv1/internal/middleware"
	"github.com/dpaschgit/lbaasv1/internal/repository"
	"github.com/dpaschgit/lbaasv1/internal/service"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"version":    version,
		"port":       cfg.Server.Port,
		"output_dir": cfg.Translator.OutputDir,
	}).Info("Starting LBaaS API")

	vipRepo := repository.NewInMemoryVIPRepository()
	registryRepo := repository.NewInMemoryRegistryRepository()
	configRepo := repository.NewInMemoryConfigRepository()

	cmdb := integrations.NewCMDBClient(cfg.Integrations.CMDBBaseURL, log)
	ipam := integrations.NewIPAMClient(cfg.Integrations.IPAMBaseURL, log)

	deployment := service.NewDeploymentService(registryRepo, configRepo, cfg.Translator.OutputDir, log)
	promotion := service.NewPromotionService(configRepo, log)
	migration := service.NewMigrationService(configRepo, log)

	auth := middleware.NewAuthenticator(cfg.Auth, log)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, log)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:        auth,
		RateLimiter: rateLimiter,
		AuthAPI:     handler.NewAuthHandler(auth, log),
		VIPs:        handler.NewVIPHandler(vipRepo, deployment, cmdb, ipam, log),
		Registry:    handler.NewRegistryHandler(registryRepo, log),
		Promotion:   handler.NewPromotionHandler(promotion, log),
		Migration:   handler.NewMigrationHandler(migration, log),
		Health:      handler.NewHealthHandler(version),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	log.Info("LBaaS API stopped gracefully")
}

func loadConfig() (*config.Config, error) {
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		return config.LoadFromFile(file)
	}
	if len(os.Args) > 1 {
		return config.LoadFromFile(os.Args[1])
	}
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
