package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/counseling-portal-backend/internal/config"
	"github.com/AnshRaj112/counseling-portal-backend/internal/database"
	"github.com/AnshRaj112/counseling-portal-backend/internal/handlers"
	"github.com/AnshRaj112/counseling-portal-backend/internal/middleware"
	"github.com/AnshRaj112/counseling-portal-backend/internal/routes"
	"github.com/AnshRaj112/counseling-portal-backend/internal/services"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found")
	}
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFile)

	respondentKey := loadRespondentKey(cfg)

	// Connect to Redis (sessions and submit rate limiting)
	logger.Info("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		if cfg.IsProduction() {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		logger.Warnf("⚠️  Redis unavailable (%v). Sessions cannot be resolved and rate limiting is off", err)
	}
	defer database.DisconnectRedis()

	health := map[string]handlers.Pinger{}
	if database.RedisClient != nil {
		health["redis"] = func(ctx context.Context) error { return database.RedisClient.Ping(ctx).Err() }
	}

	var store services.SurveyStore
	switch cfg.StoreDriver {
	case config.StoreMongo:
		logger.Info("Connecting to MongoDB...")
		if err := database.Connect(cfg.MongoURI); err != nil {
			logger.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer database.Disconnect()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.EnsureSurveyIndexes(ctx, database.DB); err != nil {
			cancel()
			logger.Fatalf("Failed to ensure MongoDB survey indexes: %v", err)
		}
		cancel()
		logger.Info("✅ MongoDB survey indexes ensured")

		store = database.NewMongoSurveyStore(database.DB)
		health["mongo"] = func(ctx context.Context) error { return database.Client.Ping(ctx, nil) }

	case config.StoreMemory:
		logger.Warnf("⚠️  Using the in-memory survey store. Data is lost on restart")
		store = database.NewMemorySurveyStore()

	default:
		logger.Info("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer database.DisconnectPostgres()

		store = database.NewPostgresSurveyStore(database.PostgresDB)
		health["postgres"] = database.PostgresDB.PingContext
	}

	h := &handlers.SurveyHandler{
		Surveys:    services.NewSurveyService(store, nil),
		Responses:  services.NewResponseService(store, nil, respondentKey),
		Statistics: services.NewStatisticsService(store),
		Identity:   services.NewSessionResolver(database.RedisClient),
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		logger.Info("✅ Production security enabled (security headers, host check, per-IP rate limiting)")
	}

	// Health check (no rate limit)
	r.Get("/health", handlers.Health(health))

	routes.SetupRoutes(r, h, middleware.RateLimit(database.RedisClient, "submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Infof("🚀 Server starting on port %s (store: %s, env: %s)", cfg.Port, cfg.StoreDriver, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

// loadRespondentKey decodes RESPONDENT_KEY. Development falls back to a random
// key, which makes fingerprints of anonymous surveys unstable across restarts.
func loadRespondentKey(cfg *config.Config) []byte {
	key, err := utils.DecodeRespondentKey(cfg.RespondentKey)
	if err == nil {
		logger.Info("✅ Respondent key configured")
		return key
	}
	if cfg.IsProduction() {
		logger.Fatalf("RESPONDENT_KEY is invalid: %v. Generate one with: openssl rand -base64 32", err)
	}

	logger.Warnf("⚠️  RESPONDENT_KEY not usable (%v). Using a random key for this run", err)
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		logger.Fatalf("Failed to generate respondent key: %v", err)
	}
	return key
}
