package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/eventa-io/eventa-server/internal/api/http/handler"
	"github.com/eventa-io/eventa-server/internal/api/http/httpctx"
	"github.com/eventa-io/eventa-server/internal/api/http/middleware"
	"github.com/eventa-io/eventa-server/internal/api/http/router"
	"github.com/eventa-io/eventa-server/internal/config"
	"github.com/eventa-io/eventa-server/internal/logger"
	"github.com/eventa-io/eventa-server/internal/model"
	"github.com/eventa-io/eventa-server/internal/oauth"
	"github.com/eventa-io/eventa-server/internal/repository/postgres"
	"github.com/eventa-io/eventa-server/internal/server"
	"github.com/eventa-io/eventa-server/internal/service"
	storage "github.com/eventa-io/eventa-server/internal/storage/minio"
	"github.com/eventa-io/eventa-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL)
	tokenService := service.NewTokenService(refreshTokenRepo, cfg.Refresh.TTL, logger)
	authService := service.NewAuth(userRepo, tokenManager, tokenService, logger)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	eventService := service.NewEvent(eventRepo, storageClient, logger)

	ctxMgr := httpctx.NewManager()
	oauthRegistry := oauth.NewRegistry(cfg.OAuth, logger)

	authHandler := handler.NewAuth(authService, oauthRegistry, ctxMgr, logger)
	eventHandler := handler.NewEvent(eventService, ctxMgr, logger)
	authenticate := middleware.NewAuthenticate(tokenManager, ctxMgr, logger)
	logging := middleware.NewLogging(logger)

	routes := router.New(authHandler, eventHandler, authenticate, logging)
	httpServer := server.NewHTTP(fmt.Sprintf(":%s", cfg.HTTP.Port), routes, logger)

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
