// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/leaflens/species-service/internal/classify"
	"github.com/leaflens/species-service/internal/config"
	"github.com/leaflens/species-service/internal/handler"
	"github.com/leaflens/species-service/internal/inference"
	"github.com/leaflens/species-service/internal/labels"
	"github.com/leaflens/species-service/internal/logging"
	"github.com/leaflens/species-service/internal/metrics"
	"github.com/leaflens/species-service/internal/middleware"
	"github.com/leaflens/species-service/internal/tracing"
)

const (
	serviceName    = "species-service"
	serviceVersion = "1.0.0"
)

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "HTTP server port (default: 8080)")
	modelPath := flag.String("model", "", "Path to ONNX model file (default: tree_species.onnx)")
	labelsPath := flag.String("labels", "", "Path to class mapping JSON file (default: class_mapping.json)")
	metricsPort := flag.Int("metrics", 0, "Prometheus metrics port (default: 9100)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	useMock := flag.Bool("mock", false, "Use mock inference engine (for testing)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(cfg, *port, *modelPath, *labelsPath, *metricsPort, *useMock)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting "+serviceName,
		zap.Int("port", cfg.Port),
		zap.Int("metrics_port", cfg.MetricsPort),
		zap.String("model", cfg.Model),
		zap.String("labels", cfg.Labels),
		zap.Int("image_size", cfg.ImageSize),
		zap.Bool("mock", cfg.UseMockInference))

	// Initialize OpenTelemetry tracer
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = tracing.Init(context.Background(), serviceName, serviceVersion, cfg.OTELEndpoint)
		if err != nil {
			logger.Warn("failed to initialize tracer", zap.Error(err))
		} else {
			logger.Info("tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	// Load the label set and inference engine eagerly; any failure here is
	// fatal and the API port is never bound.
	labelSet, err := labels.Load(cfg.Labels)
	if err != nil {
		logger.Fatal("failed to load label set", zap.Error(err))
	}
	logger.Info("label set loaded", zap.Int("classes", len(labelSet)))

	var engine inference.Engine
	if cfg.UseMockInference {
		logger.Info("using mock inference engine")
		engine = inference.NewMockWithProbabilities(uniform(len(labelSet)))
	} else {
		engine, err = inference.NewONNX(cfg.Model, 3, int64(cfg.ImageSize), int64(cfg.ImageSize))
		if err != nil {
			logger.Fatal("failed to load ONNX model", zap.Error(err))
		}
		logger.Info("ONNX model loaded", zap.String("path", cfg.Model))
	}
	defer engine.Close()

	classifier, err := classify.New(engine, labelSet, cfg.ImageSize)
	if err != nil {
		logger.Fatal("failed to build classifier", zap.Error(err))
	}

	// Warmup doubles as the structural compatibility check between the
	// model's output width and the label set.
	warmupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := classifier.Warmup(warmupCtx); err != nil {
		cancel()
		logger.Fatal("model warmup failed", zap.Error(err))
	}
	cancel()
	logger.Info("model warmup complete")

	// Metrics and ops probes on a separate port
	metricsServer := startMetricsServer(cfg.MetricsPort, logger)

	// API server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	readyNote := fmt.Sprintf("tree species classification API is running (%d classes)", len(labelSet))
	h := handler.New(classifier, logger, cfg.MaxUploadBytes, readyNote)
	h.Register(router)

	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	metrics.SetHealthy()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutting down", zap.String("signal", sig.String()))

		metrics.SetUnhealthy()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Warn("API server shutdown error", zap.Error(err))
		}
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown error", zap.Error(err))
		}
		if tracerShutdown != nil {
			if err := tracerShutdown(ctx); err != nil {
				logger.Warn("tracer shutdown error", zap.Error(err))
			}
		}
	}()

	logger.Info("ready to accept requests", zap.String("addr", apiServer.Addr))
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("server shutdown complete")
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithConfigFile(configFile)
	}
	return config.Load()
}

// applyFlags overrides config fields with any flags the operator set.
func applyFlags(cfg *config.Config, port int, model, labelsPath string, metricsPort int, useMock bool) {
	if port > 0 {
		cfg.Port = port
	}
	if model != "" {
		cfg.Model = model
	}
	if labelsPath != "" {
		cfg.Labels = labelsPath
	}
	if metricsPort > 0 {
		cfg.MetricsPort = metricsPort
	}
	if useMock {
		cfg.UseMockInference = true
	}
}

// uniform builds the flat distribution the mock engine serves.
func uniform(n int) []float32 {
	probs := make([]float32, n)
	for i := range probs {
		probs[i] = 1.0 / float32(n)
	}
	return probs
}

func startMetricsServer(port int, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Liveness and readiness probes
	probe := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
	mux.HandleFunc("/healthz", probe)
	mux.HandleFunc("/readyz", probe)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server error", zap.Error(err))
		}
	}()

	return server
}
