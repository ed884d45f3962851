package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"clinsynth/internal/handler"
	"clinsynth/internal/middleware"
	"clinsynth/internal/port"
)

// Options carries router-wide settings.
type Options struct {
	ServiceName string
	CORSOrigins []string
	Tracing     bool
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log *zap.Logger,
	verifier port.TokenVerifier,
	analysisH *handler.AnalysisHandler,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
	opts Options,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(opts.CORSOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(verifier))

	v1.POST("/analyses", analysisH.Analyze)

	reports := v1.Group("/reports")
	reports.GET("", analysisH.List)
	reports.GET("/:id", analysisH.Get)
	reports.GET("/:id/pdf", reportH.PDF)
	reports.GET("/:id/pages/:page/preview", reportH.Preview)
	reports.GET("/:id/findings.xlsx", reportH.XLSX)
	reports.GET("/:id/findings.csv", reportH.CSV)

	return r
}
