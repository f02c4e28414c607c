package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban-board/api"
	"kanban-board/config"
	"kanban-board/domain"
	"kanban-board/events"
	"kanban-board/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStorage, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.WithError(err).Warn("close storage")
		}
	}()

	broker := events.NewBroker()
	sinks := []events.Sink{}
	if cfg.Redis.URL != "" && cfg.Events.Channel != "" {
		// Events go out over Redis and come back through the subscription so
		// every instance sharing the board notifies its own stream clients.
		opts, err := config.RedisOptions(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		rc := redis.NewClient(opts)
		defer rc.Close()
		sinks = append(sinks, events.NewRedisPublisher(rc, cfg.Events.Channel))
		go events.Subscribe(ctx, logger, rc, cfg.Events.Channel, time.Second, func(ev domain.Event) {
			_ = broker.Send(ctx, ev)
		})
	} else {
		sinks = append(sinks, broker)
	}
	if cfg.Events.QueueConnectionString != "" {
		qp, err := events.NewQueuePublisher(cfg.Events.QueueConnectionString, cfg.Events.QueueName)
		if err != nil {
			log.Fatalf("event queue: %v", err)
		}
		sinks = append(sinks, qp)
	}
	dispatcher := events.NewDispatcher(events.DispatcherConfig{
		Workers:        cfg.Events.Workers,
		Buffer:         cfg.Events.Buffer,
		HandoffTimeout: cfg.Events.HandoffTimeout,
	}, logger, sinks...)
	defer dispatcher.Close()

	store, err := domain.NewStore(ctx, st, domain.WithPublisher(dispatcher))
	if err != nil {
		log.Fatalf("board: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Decompress())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(echoprometheus.NewMiddleware("kanban"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, store, broker, logger)

	go func() {
		if err := e.Start(cfg.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()
	log.WithFields(log.Fields{"addr": cfg.ListenAddr(), "driver": cfg.Storage.Driver}).Info("kanban board api started")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
