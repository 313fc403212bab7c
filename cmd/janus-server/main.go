package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/janus-access/server/internal/actuator"
	"github.com/janus-access/server/internal/config"
	"github.com/janus-access/server/internal/db"
	"github.com/janus-access/server/internal/httpapi"
	"github.com/janus-access/server/internal/janus/credential"
	"github.com/janus-access/server/internal/janus/service"
	"github.com/janus-access/server/internal/janus/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DB.Path})
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	users := sqlite.NewUserStore(conn, writer)
	doors := sqlite.NewDoorStore(conn, writer)
	events := sqlite.NewAccessEventStore(conn, writer)

	if cfg.Server.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{HashParams: cfg.Hashing}); err != nil {
			logger.Fatal("seed dev data", zap.Error(err))
		}
	}

	images, err := service.NewImageStore(cfg.Images.Dir)
	if err != nil {
		logger.Fatal("image store", zap.Error(err))
	}

	relay := actuator.NewRelayClient(cfg.Actuator.Timeout)

	var faces service.FaceResolver
	if cfg.Face.RecognizerURL != "" {
		recognizer := credential.NewHTTPRecognizer(cfg.Face.RecognizerURL, cfg.Actuator.Timeout)
		faces = credential.NewFaceMatcher(recognizer, cfg.Face.Threshold)
	}

	verify := service.NewVerificationService(service.VerificationConfig{
		Users:   users,
		Doors:   doors,
		Events:  events,
		Faces:   faces,
		Relay:   relay,
		Lockout: service.NewLockout(cfg.Lockout.MaxAttempts, cfg.Lockout.Window),
		Images:  images,
		Logger:  logger.Named("verify"),
	})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger: logger.Named("http"),
		Addr:   cfg.Server.Addr,
		Auth:   service.NewAuthService(users, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, logger.Named("auth")),
		Users:  service.NewUserService(users, cfg.Hashing, logger.Named("users")),
		Doors:  service.NewDoorService(doors, users, logger.Named("doors")),
		Verify: verify,
		Logs:   service.NewLogService(events, images),
	})

	monitor := service.NewRelayMonitor(doors, relay, cfg.Monitor.Interval, logger.Named("relay"))
	monitor.Start(ctx)
	defer monitor.Stop()

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
