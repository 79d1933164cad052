package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/studio-booking/internal/config"
	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/handler"
	"github.com/iliyamo/studio-booking/internal/middleware"
	"github.com/iliyamo/studio-booking/internal/repository"
	"github.com/iliyamo/studio-booking/internal/router"
	"github.com/iliyamo/studio-booking/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using process environment")
	}
	cfg := config.Load()
	log.SetLevel(logLevel(cfg.LogLevel))

	db, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		Path:   cfg.SQLitePath,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable: report cache and auth rate limit disabled")
	} else {
		defer rdb.Close()
	}

	e, err := newServer(cfg, db, rdb)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	addr := ":" + cfg.Port
	go func() {
		log.Infof("listening on %s (env=%s, db=%s)", addr, cfg.Env, db.Dialect.Name)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("forced shutdown: %v", err)
	}
}

// newServer assembles the echo instance: global middleware, repositories,
// the booking service and every route group.
func newServer(cfg config.Config, db *database.DB, rdb *redis.Client) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))

	users := repository.NewUserRepo(db)
	instructors := repository.NewInstructorRepo(db)
	tokens := repository.NewTokenRepo(db)
	classes := repository.NewClassRepo(db)
	events := repository.NewEventRepo(db)
	reports := repository.NewReportRepo(db)

	bcfg := &service.BookingConfig{
		DB:        db,
		Ledger:    repository.NewClassLedger(db),
		Logger:    log.New("booking"),
		TxTimeout: cfg.BookingTxTimeout,
	}
	if cfg.RabbitMQURL != "" {
		bcfg.Publisher = service.NewAMQPPublisher(cfg.RabbitMQURL)
	}
	booking, err := service.NewBookingService(bcfg)
	if err != nil {
		return nil, err
	}

	cacheCfg := config.LoadCacheConfig()
	authH := handler.NewAuthHandler(cfg, users, instructors, tokens)
	classH := handler.NewClassHandler(classes, booking, rdb, cacheCfg.Prefix)
	eventH := handler.NewEventHandler(events)
	reportH := handler.NewReportHandler(reports)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterPublic(e, classH, eventH)
	router.RegisterStudent(e, classH, eventH, cfg.JWTSecret)
	router.RegisterInstructor(e, classH, reportH, cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb))
	return e, nil
}

func logLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
