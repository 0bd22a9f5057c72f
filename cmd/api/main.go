package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quizreg/internal/api"
	"quizreg/internal/auth"
	"quizreg/internal/config"
	"quizreg/internal/httpmiddleware"
	"quizreg/internal/logging"
	"quizreg/internal/metrics"
	"quizreg/internal/objectstore"
	"quizreg/internal/registration"
	"quizreg/internal/schools"
	"quizreg/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
	}
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogPretty || cfg.Env == "dev")
	log.Logger = logger

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}

// healthCheck reports whether one dependency is reachable.
type healthCheck func(ctx context.Context) bool

func runHTTP(cfg config.App, logger zerolog.Logger) error {
	ctx := context.Background()

	repo, checks, closeStore, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter, closeLimiter, err := newLimiter(cfg, checks)
	if err != nil {
		return err
	}
	defer closeLimiter()

	uploader, err := newUploader(cfg, logger)
	if err != nil {
		return err
	}

	creds, err := auth.NewCredentials(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return fmt.Errorf("admin credentials: %w", err)
	}
	if cfg.IsProduction() && cfg.JWTSigningKey == config.DefaultJWTSigningKey {
		return fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}

	svc := registration.NewService(repo, uploader, cfg.MaxUploadBytes, logger)
	handler := api.New(svc, schools.New(schools.Known), creds, api.Options{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		TokenTTL:   cfg.AccessTTL,
		MaxUpload:  cfg.MaxUploadBytes,
		DBTimeout:  cfg.DBTimeout,
	}, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.RequestLogger(logger, "/healthz", "/metrics"))
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		for name, check := range checks {
			healthy := check(c.Request.Context())
			body[name] = healthy
			if !healthy {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	})

	if cfg.StorageBackend == "local" {
		r.Static("/uploads", cfg.UploadDir)
	}

	handler.Routes(r, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced shutdown")
	}

	logger.Info().Msg("server exited")
	return nil
}

// openRepository connects the configured registration store.
func openRepository(ctx context.Context, cfg config.App, logger zerolog.Logger) (registration.Repository, map[string]healthCheck, func(), error) {
	checks := map[string]healthCheck{}
	switch cfg.StoreBackend {
	case "mongo":
		m, err := store.NewMongo(ctx, cfg.MongoURI, cfg.DatabaseName, cfg.DBTimeout)
		if err != nil {
			return nil, nil, nil, err
		}
		checks["mongo"] = m.Healthy
		closeFn := func() {
			if err := m.Close(context.Background()); err != nil {
				logger.Error().Err(err).Msg("mongo disconnect")
			}
		}
		return registration.NewMongoRepository(m.DB), checks, closeFn, nil
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL, cfg.DBTimeout)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		checks["db"] = db.Healthy
		closeFn := func() { _ = db.Close() }
		return registration.NewPostgresRepository(db.Client), checks, closeFn, nil
	case "memory":
		logger.Warn().Msg("using in-memory store; registrations are lost on restart")
		return registration.NewMemoryRepository(), checks, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

// newLimiter builds the registration rate limiter and a func releasing it.
func newLimiter(cfg config.App, checks map[string]healthCheck) (httpmiddleware.Limiter, func(), error) {
	switch cfg.RateLimitBackend {
	case "memory":
		return httpmiddleware.NewSlidingWindow(cfg.RateLimitRequests, cfg.RateLimitWindow), func() {}, nil
	case "redis":
		redisClient := store.NewRedis(cfg.RedisAddr)
		checks["redis"] = redisClient.Healthy
		closeFn := func() { _ = redisClient.Close() }
		return httpmiddleware.NewRedisWindow(redisClient.Client, "quizreg:ratelimit:", cfg.RateLimitRequests, cfg.RateLimitWindow), closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", cfg.RateLimitBackend)
}

func newUploader(cfg config.App, logger zerolog.Logger) (registration.Uploader, error) {
	switch cfg.StorageBackend {
	case "cloudinary":
		if !cfg.CloudinaryConfigured() {
			return nil, fmt.Errorf("cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
		}
		logger.Info().Str("cloud", cfg.CloudinaryCloudName).Msg("cloudinary configured")
		return objectstore.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder), nil
	case "local":
		return objectstore.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
	}
	return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
}

// securityHeaders sets browser hardening headers; HSTS in release mode only.
func securityHeaders() gin.HandlerFunc {
	hsts := gin.Mode() == gin.ReleaseMode
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
