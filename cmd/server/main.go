package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/facility-booking/internal/booking"
	"github.com/iliyamo/facility-booking/internal/config"
	"github.com/iliyamo/facility-booking/internal/database"
	"github.com/iliyamo/facility-booking/internal/handler"
	"github.com/iliyamo/facility-booking/internal/middleware"
	"github.com/iliyamo/facility-booking/internal/queue"
	"github.com/iliyamo/facility-booking/internal/repository"
	"github.com/iliyamo/facility-booking/internal/router"
)

func main() {
	cfg := config.MustLoad()
	log := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	store := repository.NewBookingRepo(db)

	if cfg.AdminEmail != "" {
		created, err := repository.EnsurePrivileged(ctx, accounts, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.WithError(err).Fatal("bootstrap admin account")
		}
		log.WithFields(logrus.Fields{"email": cfg.AdminEmail, "created": created}).Info("bootstrap admin account ready")
	}

	// Redis is optional: without it the limiter and the catalog cache are off.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	catalog := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, "facilities", log)

	var events booking.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL, log)
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.BookingLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("booking consumer stopped")
			}
		}()
	} else {
		log.Info("RABBITMQ_URL not set; booking events are not published")
	}

	svc := booking.NewService(store, events, cfg.Policy, log)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover(), middleware.RequestID(), middleware.Logger(log))
	router.Register(e, router.Deps{
		DB:           db,
		Auth:         handler.NewAuthHandler(cfg, accounts, tokens),
		Booking:      handler.NewBookingHandler(svc, catalog, log),
		JWTSecret:    cfg.JWTSecret,
		RateLimit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		CatalogCache: catalog.Middleware(),
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "policy": cfg.Policy}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
