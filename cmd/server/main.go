package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-share/internal/auth"
	"github.com/example/ride-share/internal/config"
	"github.com/example/ride-share/internal/discovery"
	"github.com/example/ride-share/internal/dispatch"
	"github.com/example/ride-share/internal/geocode"
	httpapi "github.com/example/ride-share/internal/http"
	"github.com/example/ride-share/internal/ingest"
	"github.com/example/ride-share/internal/logging"
	"github.com/example/ride-share/internal/payments"
	"github.com/example/ride-share/internal/rides"
	"github.com/example/ride-share/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backends. Every client is built here and handed down;
	// no package reaches for a global.
	var rideStore storage.RideStore
	var userStore storage.UserStore
	switch {
	case cfg.MongoURI != "":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		ms, err := storage.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDB)
		cancel()
		if err != nil {
			logger.Error("mongo connect failed", "error", err)
			os.Exit(1)
		}
		rideStore = ms
		userStore = ms
	case cfg.PGDSN != "":
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		rideStore = ps
		userStore = storage.NewMemoryUserStore()
		logger.Warn("postgres backend holds rides only; users are in-memory")
	default:
		rideStore = storage.NewMemoryRideStore()
		userStore = storage.NewMemoryUserStore()
		logger.Warn("no store configured; using in-memory backend")
	}

	var sessionStore auth.SessionStore
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		sessionStore = auth.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword)
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	} else {
		sessionStore = auth.NewMemorySessionStore()
	}

	changes := auth.NewBroadcaster()
	authSvc := &auth.Service{
		Users:      userStore,
		Sessions:   sessionStore,
		SessionTTL: cfg.SessionTTL,
		Changes:    changes,
		Logger:     logger,
	}

	wsreg := dispatch.NewWSRegistry(logger)
	notifier := &dispatch.Notifier{WS: wsreg}
	if cfg.PushEndpoint != "" {
		notifier.Push = dispatch.NewPushGateway(cfg.PushEndpoint, cfg.PushKey)
	}

	rideSvc := &rides.Service{
		Store:  rideStore,
		Notify: notifier,
		Logger: logger,
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		rideSvc.Events = producer
	}
	if cfg.StripeKey != "" {
		rideSvc.Payments = payments.NewStripeClient(cfg.StripeKey)
	}

	geoSvc := &geocode.Service{Cache: geocode.NewCache(cfg.GeocodeCacheTTL)}
	if cfg.GeocodeEndpoint != "" {
		geoSvc.Resolver = geocode.NewNominatimClient(cfg.GeocodeEndpoint)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Auth:      authSvc,
		Discovery: &discovery.Service{Store: rideStore},
		Rides:     rideSvc,
		Geocode:   geoSvc,
		WSReg:     wsreg,
		Changes:   changes,
		Redis:     redisClient,
		Logger:    logger,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("ride-share listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
