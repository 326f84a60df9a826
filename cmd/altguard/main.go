package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/NeuralTrust/AltGuard/pkg/config"
	"github.com/NeuralTrust/AltGuard/pkg/dependency_container"
	"github.com/NeuralTrust/AltGuard/pkg/infra/database"
	infraLogger "github.com/NeuralTrust/AltGuard/pkg/infra/logger"
	_ "github.com/NeuralTrust/AltGuard/pkg/infra/migrations"
	"github.com/NeuralTrust/AltGuard/pkg/server"
	"github.com/NeuralTrust/AltGuard/pkg/server/router"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const serverType = "admin"

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "/tmp/altguard"
	}
	logger, closeLogger, err := infraLogger.NewLogger(serverType, logDir)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLogger()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	var db *database.DB
	if cfg.Store.Driver == config.StorePostgres {
		db, err = database.NewDB(logger, &cfg.Database)
		if err != nil {
			logger.Fatalf("failed to initialize database: %v", err)
		}
	}

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
		DB:     db,
	})
	if err != nil {
		logger.Fatalf("failed to initialize dependencies: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	if container.Listener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			container.Listener.Listen(ctx, cfg.Events.Redis.Channel)
		}()
	}
	if container.RetentionScheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			container.RetentionScheduler.Run(ctx)
		}()
	}

	metricsServer := server.NewMetricsServer(cfg, logger)
	adminServer := server.NewAdminServer(server.AdminServerDI{
		Config: cfg,
		Logger: logger,
		Routers: []router.ServerRouter{
			router.NewAdminRouter(container.MiddlewareTransport, container.HandlerTransport),
		},
	})

	for _, srv := range []server.Server{metricsServer, adminServer} {
		go func(srv server.Server) {
			if err := srv.Run(); err != nil {
				logger.Fatalf("server failed: %v", err)
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	var errs []error
	errs = append(errs, adminServer.Shutdown(), metricsServer.Shutdown())
	cancel()
	wg.Wait()
	errs = append(errs, container.Close())

	if err := errors.Join(errs...); err != nil {
		logger.WithError(err).Error("error during shutdown")
		closeLogger()
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{"instance_id": cfg.Server.InstanceID}).Info("server gracefully stopped")
}
