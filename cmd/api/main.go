package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/medora/medora-api/internal/config"
	"github.com/medora/medora-api/internal/domain/creditpool"
	"github.com/medora/medora-api/internal/domain/messaging"
	"github.com/medora/medora-api/internal/domain/topup"
	"github.com/medora/medora-api/internal/domain/wallet"
	"github.com/medora/medora-api/internal/middleware"
	"github.com/medora/medora-api/internal/pkg/database"
	"github.com/medora/medora-api/internal/pkg/events"
	"github.com/medora/medora-api/internal/pkg/jwt"
	"github.com/medora/medora-api/internal/pkg/logger"
	"github.com/medora/medora-api/internal/pkg/response"
	"github.com/medora/medora-api/internal/pkg/sms"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Medora credit API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	producer, err := events.NewProducer(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
	}
	defer producer.Close()

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	smsClient := sms.NewClient(sms.Config{
		BaseURL: cfg.SMSGatewayBaseURL,
		APIKey:  cfg.SMSGatewayAPIKey,
		Timeout: time.Duration(cfg.SMSGatewayTimeoutSeconds) * time.Second,
	})

	// ---------- Repositories ----------
	poolRepo := creditpool.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	topupRepo := topup.NewRepository(db)
	messageRepo := messaging.NewRepository(db)

	// ---------- Services ----------
	poolService := creditpool.NewService(poolRepo, producer)
	walletService := wallet.NewService(walletRepo, db, poolRepo, poolService, producer, cfg.LowBalanceThreshold)
	topupService := topup.NewService(topupRepo, db, poolRepo, poolService, walletRepo)

	rateLimiter := messaging.NewRateLimiter(redis, cfg.SendRateLimit, cfg.SendRateWindow)
	messagingService := messaging.NewService(messageRepo, walletService, smsClient, rateLimiter)

	// ---------- Handlers ----------
	poolHandler := creditpool.NewHandler(poolService)
	walletHandler := wallet.NewHandler(walletService)
	topupHandler := topup.NewHandler(topupService)
	messagingHandler := messaging.NewHandler(messagingService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/admin-credits", poolHandler.Routes(authMiddleware))
		r.Mount("/topup", topupHandler.Routes(authMiddleware))
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/sms-send", messagingHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
