package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carelink/telehealth-api/internal/config"
	"github.com/carelink/telehealth-api/internal/email"
	"github.com/carelink/telehealth-api/internal/handler"
	appointmentHandler "github.com/carelink/telehealth-api/internal/handler/appointment"
	authHandler "github.com/carelink/telehealth-api/internal/handler/auth"
	availabilityHandler "github.com/carelink/telehealth-api/internal/handler/availability"
	userHandler "github.com/carelink/telehealth-api/internal/handler/user"
	"github.com/carelink/telehealth-api/internal/middleware"
	"github.com/carelink/telehealth-api/internal/repository/postgres"
	"github.com/carelink/telehealth-api/internal/router"
	appointmentService "github.com/carelink/telehealth-api/internal/service/appointment"
	authService "github.com/carelink/telehealth-api/internal/service/auth"
	availabilityService "github.com/carelink/telehealth-api/internal/service/availability"
	"github.com/carelink/telehealth-api/internal/service/notification"
	userService "github.com/carelink/telehealth-api/internal/service/user"
	"github.com/carelink/telehealth-api/pkg/auth"
	"github.com/carelink/telehealth-api/pkg/lock"
	redisBroker "github.com/carelink/telehealth-api/pkg/messaging/redis"
	"github.com/carelink/telehealth-api/pkg/metrics"
	"github.com/carelink/telehealth-api/pkg/payment"
	"github.com/carelink/telehealth-api/pkg/security"
	"github.com/carelink/telehealth-api/pkg/validator"
)

const slotLockTTL = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{URL: cfg.Redis.URL()})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Shared infrastructure
	m := metrics.NewMetrics("telehealth", "api")
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret:      cfg.JWT.Secret,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})
	hasher := security.NewBcryptHasher(0)
	slotLocker := lock.NewRedisSlotLocker(broker.Client(), slotLockTTL)
	gateway := payment.NewHTTPGateway(payment.Config{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Payment.SecretKey,
		Timeout:   time.Duration(cfg.Payment.TimeoutSeconds) * time.Second,
	})

	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	notifSvc := notification.NewService(emailSvc)

	// Services
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	userSvc := userService.NewService(userRepo)
	availabilitySvc := availabilityService.NewService(availabilityRepo, outboxRepo)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo,
		availabilityRepo,
		userRepo,
		outboxRepo,
		slotLocker,
		gateway,
		notifSvc,
		m,
	)

	// Handlers
	v := validator.New()
	h := handler.NewHandler(db, broker.Client())
	authH := authHandler.NewHandler(authSvc, v)
	userH := userHandler.NewHandler(userSvc)
	availabilityH := availabilityHandler.NewHandler(availabilitySvc, v)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc, v)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		authH,
		userH,
		availabilityH,
		appointmentH,
		h,
		router.RouterConfig{
			RateLimit:     100,
			RateBurst:     200,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "telehealth_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
