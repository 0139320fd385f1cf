package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studiobooking/internal/config"
	"studiobooking/internal/database"
	"studiobooking/internal/logger"
	"studiobooking/internal/middleware"
	"studiobooking/internal/modules/auth"
	"studiobooking/internal/modules/booking"
	"studiobooking/internal/modules/catalog"
	"studiobooking/internal/modules/notification"
	"studiobooking/internal/modules/payment"
	jwtsvc "studiobooking/internal/pkg/jwt"
	"studiobooking/internal/pkg/keylock"
	"studiobooking/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("load config: %v", err)
	}

	log, err := logger.New(cfg.LogDir, cfg.LogDebug)
	if err != nil {
		stdlog.Fatalf("init logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	studioRepo := repository.NewStudioRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	tx := repository.NewTransactor(db)

	locks, closeLocks, err := newLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocks()

	hub := notification.NewHub()
	deliverers := []notification.Deliverer{hub}
	var publisher *notification.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic, notificationRepo)
		deliverers = append(deliverers, publisher)
		log.Info("kafka notification fan-out enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaNotificationsTopic))
	}
	emitter := notification.NewEmitter(notificationRepo, log, cfg.NotificationWorkers, cfg.NotificationQueueSize, deliverers...)

	mode, err := payment.ParseMode(cfg.PaymentReconcileMode)
	if err != nil {
		return err
	}

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	authService := auth.NewService(userRepo, tokens, log)
	catalogService := catalog.NewService(studioRepo, bookingRepo, tx, locks, log)
	bookingService := booking.NewService(bookingRepo, studioRepo, tx, locks, emitter, log)
	paymentService := payment.NewService(paymentRepo, bookingRepo, tx, locks, emitter, mode, log)
	notificationService := notification.NewService(notificationRepo, emitter)

	if !cfg.LogDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(tokens))
	staff := v1.Group("")
	staff.Use(middleware.JWTAuth(tokens), middleware.StaffOnly())

	authHandler := auth.NewHandler(authService)
	authHandler.RegisterPublicRoutes(v1)
	authHandler.RegisterProtectedRoutes(protected)
	catalog.NewHandler(catalogService).RegisterRoutes(v1, staff)
	booking.NewHandler(bookingService).RegisterRoutes(v1, protected, staff)
	payment.NewHandler(paymentService).RegisterRoutes(protected, staff)
	notificationHandler := notification.NewHandler(notificationService, hub, tokens, log, cfg.CORSAllowedOrigins)
	notificationHandler.RegisterRoutes(protected, staff)
	notificationHandler.RegisterWS(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return bookingService.RunMaintenance(gctx, cfg.MaintenanceInterval, cfg.ReminderLead)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// Handlers are done; drain queued notifications before closing their sinks.
	emitter.Close()
	hub.Close()
	if publisher != nil {
		if cerr := publisher.Close(); cerr != nil {
			log.Warn("close kafka publisher", zap.Error(cerr))
		}
	}
	if sqlDB, derr := db.DB(); derr == nil {
		_ = sqlDB.Close()
	}
	return err
}

// newLocker returns the per-studio admission lock: Redis-backed when
// REDIS_ADDR is set so several API instances share it, in-process otherwise.
// An unreachable Redis is fatal in prod-like environments.
func newLocker(ctx context.Context, cfg *config.Config, log *zap.Logger) (keylock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return keylock.NewMemory(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if config.IsProdLike(cfg.AppEnv) {
			return nil, nil, fmt.Errorf("redis lock backend %s unreachable: %w", cfg.RedisAddr, err)
		}
		log.Error("redis unavailable, falling back to in-process studio locks; instances no longer share admission locks",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return keylock.NewMemory(), func() {}, nil
	}

	log.Info("using redis studio locks", zap.String("addr", cfg.RedisAddr))
	return keylock.NewRedis(client, cfg.LockTTL, log), func() { _ = client.Close() }, nil
}
