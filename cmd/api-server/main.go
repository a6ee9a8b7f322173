package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement/db"
	"procurement/db/migrations"
	"procurement/internal/auth"
	"procurement/internal/config"
	"procurement/internal/files"
	"procurement/internal/handlers"
	"procurement/internal/logger"
	"procurement/internal/mail"
	"procurement/internal/metrics"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "procurement-api",
	})
	if err != nil {
		log.Fatalf("Cannot init logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zl.Info("starting", cfg.LogFields()...)

	dbConn, err := db.Connect(ctx, cfg.Database.DSN(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB); err != nil {
		return err
	}
	store := db.NewStorage(dbConn)

	fileStore, err := newFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	var notifier auth.Notifier = mail.NewLogNotifier(zl)
	if cfg.SMTP.Enabled() {
		notifier = mail.NewMailer(mail.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			User:        cfg.SMTP.User,
			Password:    cfg.SMTP.Password,
			From:        cfg.SMTP.From,
			FrontendURL: cfg.CORS.FrontendURL,
		})
	}

	authSvc := auth.NewService(store, auth.NewBcryptHasher(),
		auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn), notifier,
		auth.Options{ResetTTL: cfg.Reset.TokenTTL, Logger: zl})

	origins := append([]string{}, cfg.CORS.AllowedOrigins...)
	if cfg.CORS.FrontendURL != "" {
		origins = append(origins, cfg.CORS.FrontendURL)
	}
	h := handlers.NewHandler(store, authSvc, fileStore, metrics.New("procurement"), zl, handlers.Options{
		MaxUploadBytes:   cfg.Files.MaxUploadBytes,
		ExposeResetToken: cfg.Reset.ExposeToken && !cfg.IsProduction(),
		AllowedOrigins:   origins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	authSvc.Wait()
	return err
}

func newFileStore(ctx context.Context, cfg *config.Config) (files.Store, error) {
	if cfg.Files.Backend == "s3" {
		s3Store, err := files.NewS3Store(ctx, files.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	}
	local, err := files.NewLocalStore(cfg.Files.UploadDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}
