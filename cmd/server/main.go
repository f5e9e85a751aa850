package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Skufu/symptomcheck/internal/api"
	"github.com/Skufu/symptomcheck/internal/feedback"
	"github.com/Skufu/symptomcheck/internal/gemini"
	"github.com/Skufu/symptomcheck/internal/logger"
	"github.com/Skufu/symptomcheck/internal/observability"
	"github.com/Skufu/symptomcheck/internal/prediction"
	"github.com/Skufu/symptomcheck/internal/web"
)

const serviceName = "symptomcheck"

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Port           string
	LogMode        string
	DatabaseURL    string
	EnableDB       bool
	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string
	GeminiTimeout  time.Duration
	FeedbackDelay  time.Duration
	CORSOrigins    []string
	Tracing        observability.Config
}

type routerDeps struct {
	DB          HealthChecker
	Predictor   api.Predictor
	Feedback    feedback.Recorder
	Log         *logger.Logger
	CORSOrigins []string
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()

	shutdownTracing, err := observability.Init(ctx, lg, cfg.Tracing)
	if err != nil {
		lg.Warn("tracing disabled", "error", err)
	}

	var db HealthChecker
	var recorder feedback.Recorder = feedback.NewDiscardRecorder(cfg.FeedbackDelay, lg)
	if cfg.EnableDB {
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			lg.Fatal("database connection failed", "error", err)
		}
		defer pool.Close()
		db = pool

		pg := feedback.NewPostgresRecorder(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			lg.Fatal("feedback schema setup failed", "error", err)
		}
		recorder = pg
		lg.Info("feedback will be stored in postgres")
	} else {
		lg.Info("feedback storage disabled; submissions are acknowledged and discarded")
	}

	var model prediction.Model
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:    cfg.GeminiAPIKey,
			ModelName: cfg.GeminiModel,
			Endpoint:  cfg.GeminiEndpoint,
			Timeout:   cfg.GeminiTimeout,
		}, lg)
		if err != nil {
			lg.Fatal("gemini client init failed", "error", err)
		}
		model = client
	} else {
		lg.Error("GEMINI_API_KEY is not set; /api/predict will answer with a configuration error")
	}

	router := setupRouter(routerDeps{
		DB:          db,
		Predictor:   prediction.NewService(model, lg),
		Feedback:    recorder,
		Log:         lg,
		CORSOrigins: cfg.CORSOrigins,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.GeminiTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("server error", "error", err)
		}
	}()

	lg.Info("server listening", "port", cfg.Port)
	waitForShutdown(server, lg)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		lg.Warn("tracing shutdown failed", "error", err)
	}
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}

	timeout, err := getDuration("GEMINI_TIMEOUT", gemini.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	delay, err := getDuration("FEEDBACK_DELAY", feedback.DefaultDelay)
	if err != nil {
		return nil, err
	}
	ratio, err := strconv.ParseFloat(getEnv("OTEL_SAMPLER_RATIO", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("OTEL_SAMPLER_RATIO: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogMode:        getEnv("LOG_MODE", "prod"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		EnableDB:       strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		GeminiAPIKey:   apiKey,
		GeminiModel:    getEnv("GEMINI_MODEL", gemini.DefaultModel),
		GeminiEndpoint: os.Getenv("GEMINI_ENDPOINT"),
		GeminiTimeout:  timeout,
		FeedbackDelay:  delay,
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		Tracing: observability.Config{
			Enabled:      strings.EqualFold(getEnv("OTEL_ENABLED", "false"), "true"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", serviceName),
			Environment:  getEnv("APP_ENV", "production"),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:     strings.EqualFold(getEnv("OTEL_EXPORTER_OTLP_INSECURE", "false"), "true"),
			SampleRatio:  ratio,
		},
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}

	return cfg, nil
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func setupRouter(deps routerDeps) *gin.Engine {
	lg := deps.Log
	if lg == nil {
		lg = logger.Nop()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(api.MethodNotAllowed)
	// otelgin wraps the request logger so the span is still on the context
	// when the log line is written.
	router.Use(
		gin.Recovery(),
		api.RequestID(),
		otelgin.Middleware(serviceName),
		api.RequestLogger(lg),
		api.LimitBodySize(1<<20), // 1MB max body
		corsMiddleware(deps.CORSOrigins),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if deps.DB == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := deps.DB.Ping(ctx); err != nil {
			dbStatus = fmt.Sprintf("unhealthy: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     dbStatus,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     dbStatus,
		})
	})

	api.NewHandler(deps.Predictor, deps.Feedback, lg).Register(router)
	web.NewHandler(deps.Predictor, deps.Feedback, lg).Register(router)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", api.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func waitForShutdown(server *http.Server, lg *logger.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		lg.Error("graceful shutdown failed", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
