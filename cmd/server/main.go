package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jwtauth "clinsynth/internal/auth/jwt"
	"clinsynth/internal/config"
	"clinsynth/internal/handler"
	"clinsynth/internal/llm"
	"clinsynth/internal/llm/claude"
	"clinsynth/internal/llm/gemini"
	"clinsynth/internal/llm/ollama"
	"clinsynth/internal/llm/openai"
	"clinsynth/internal/logger"
	"clinsynth/internal/observability"
	"clinsynth/internal/port"
	"clinsynth/internal/render"
	"clinsynth/internal/repository/postgres"
	"clinsynth/internal/router"
	"clinsynth/internal/service"
	s3storage "clinsynth/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func registerProviders() {
	llm.RegisterProvider("claude", func(cfg *config.ProviderConfig) (port.ModelClient, error) {
		return claude.NewClient(cfg), nil
	})
	llm.RegisterProvider("openai", func(cfg *config.ProviderConfig) (port.ModelClient, error) {
		return openai.NewClient(cfg), nil
	})
	llm.RegisterProvider("gemini", func(cfg *config.ProviderConfig) (port.ModelClient, error) {
		return gemini.NewClient(cfg), nil
	})
	llm.RegisterProvider("ollama", func(cfg *config.ProviderConfig) (port.ModelClient, error) {
		return ollama.NewClient(cfg), nil
	})
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	shutdownTracing, err := observability.InitTracing(zl, &cfg.Tracing, cfg.Server.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	db, err := postgres.NewDB(context.Background(), &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	reportRepo := postgres.NewReportRepo(db)
	auditRepo := postgres.NewAuditRepo(db)

	// Initialize storage
	docSource, err := s3storage.NewDocumentSource(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 document source: %w", err)
	}

	// Initialize the provider chain
	registerProviders()
	chain, err := llm.BuildChain(&cfg.LLM, logger.Component(zl, "llm"))
	if err != nil {
		return fmt.Errorf("failed to build provider chain: %w", err)
	}
	zl.Info("provider chain ready", zap.Strings("providers", chain.Names()))

	renderer, err := render.NewRenderer(render.GeometryFor(cfg.Render.PageSize), cfg.Render.Title)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	// Initialize services
	analysisSvc := service.NewAnalysisService(chain, reportRepo, docSource, auditRepo, zl)
	reportSvc := service.NewReportService(reportRepo, renderer, cfg.Render.Title, cfg.Render.PreviewScale, auditRepo, zl)

	// Initialize handlers
	analysisH := handler.NewAnalysisHandler(analysisSvc)
	reportH := handler.NewReportHandler(reportSvc)
	healthH := handler.NewHealthHandler(db, chain.Names())

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup router
	r := router.Setup(zl, jwtauth.NewVerifier(&cfg.JWT), analysisH, reportH, healthH, router.Options{
		ServiceName: cfg.Tracing.ServiceName,
		CORSOrigins: cfg.Server.CORSOrigins,
		Tracing:     cfg.Tracing.Enabled,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
