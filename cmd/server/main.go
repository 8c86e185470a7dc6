package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stsapko/contacts-api/internal/avatar"
	"github.com/stsapko/contacts-api/internal/config"
	"github.com/stsapko/contacts-api/internal/db"
	"github.com/stsapko/contacts-api/internal/handlers"
	"github.com/stsapko/contacts-api/internal/logging"
	authmw "github.com/stsapko/contacts-api/internal/middleware/auth"
	loggingmw "github.com/stsapko/contacts-api/internal/middleware/logging"
	"github.com/stsapko/contacts-api/internal/notify"
	"github.com/stsapko/contacts-api/internal/repo"
	"github.com/stsapko/contacts-api/internal/token"
	httpserver "github.com/stsapko/contacts-api/internal/transport/http"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.MinioEndpoint, "MINIO_ENDPOINT")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.ResetTTL)
	users := repo.NewUserRepo(gdb)
	contacts := repo.NewContactRepo(gdb)

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("minio client error: %v", err)
	}
	avatars, err := avatar.NewStore(ctx, minioClient, cfg.MinioBucket, cfg.MinioEndpoint, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("avatar store error: %v", err)
	}

	producer := notify.NewProducer(cfg.KafkaBrokers, cfg.MailTopic)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Users: users, Tokens: tokens, Producer: producer},
		UserHandler:    &handlers.UserHandler{Users: users, Avatars: avatars},
		ContactHandler: &handlers.ContactHandler{Contacts: contacts},
		AuthMW:         &authmw.Middleware{Tokens: tokens, Users: users},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
