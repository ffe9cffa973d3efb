package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.Env)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := &repo.GormRepo{DB: gdb}
	m := metrics.New("storefront")
	notifyTimeout := time.Duration(cfg.NotifyTimeoutSeconds) * time.Second

	var mailer notify.Sender = notify.LogSender{Logger: logger}
	if cfg.SMTP.Host != "" {
		smtp, err := notify.NewSMTPSender(cfg.SMTP)
		if err != nil {
			log.Fatalf("smtp: %v", err)
		}
		mailer = smtp
	} else {
		logger.Warn("smtp_disabled", "reason", "SMTP_HOST is empty")
	}

	var index service.ProductIndex
	if cfg.Search.URL != "" {
		es, err := search.NewClient(cfg.Search)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := es.Ping(pingCtx); err != nil {
			logger.Warn("search_unavailable", "url", cfg.Search.URL, "error", err)
		}
		pingCancel()
		index = es
	}

	var uploader storage.Uploader
	if cfg.Storage.Endpoint != "" {
		s3Ctx, s3Cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3, err := storage.NewS3Storage(s3Ctx, cfg.Storage)
		s3Cancel()
		if err != nil {
			log.Fatalf("object storage: %v", err)
		}
		uploader = s3
	}

	var verifier identity.Verifier
	if cfg.GoogleClientID != "" {
		verifier = identity.NewGoogleVerifier(cfg.GoogleClientID)
	}

	deps := &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo:          r,
			Secret:        cfg.JWTSecret,
			Identity:      verifier,
			Mailer:        mailer,
			Metrics:       m,
			ResetURL:      cfg.FrontendURL + "/reset-password",
			NotifyTimeout: notifyTimeout,
		}},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Index: index, Storage: uploader}},
		Cart:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, EnforceOwnership: cfg.CartEnforceOwnership}},
		Order: &httpserver.OrderHTTP{Svc: &service.OrderService{
			Repo:          r,
			Mailer:        mailer,
			Metrics:       m,
			UseTx:         cfg.OrderUseTx,
			NotifyTimeout: notifyTimeout,
		}},
		Comment: &httpserver.CommentHTTP{Svc: &service.CommentService{Repo: r}},
		Profile: &httpserver.ProfileHTTP{Svc: &service.ProfileService{Repo: r, Storage: uploader}},

		JWTSecret: cfg.JWTSecret,
		Ready:     r.Ping,
		Metrics:   m,
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler(cfg.Production())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("6M"))
	e.Use(m.Middleware())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr, "order_tx", cfg.OrderUseTx, "cart_ownership", cfg.CartEnforceOwnership)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server_stopped")
}
