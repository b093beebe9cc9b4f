package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/machofv/geolocation-api/docs" // Swagger docs
	"github.com/machofv/geolocation-api/internal/handler"
	"github.com/machofv/geolocation-api/internal/limiter"
	"github.com/machofv/geolocation-api/internal/logger"
	"github.com/machofv/geolocation-api/internal/metrics"
	custommiddleware "github.com/machofv/geolocation-api/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SetupRouter creates and configures the Chi router with all middleware and routes
// This separates routing logic from the main application setup
//
// Parameters:
//   - recordHandler: the geolocation record handler
//   - rateLimiter: the rate limiter (memory or Redis)
//   - m: metrics collector
//   - log: structured logger
//
// Returns:
//   - chi.Router: configured router ready to use
func SetupRouter(recordHandler *handler.RecordHandler, rateLimiter limiter.Limiter, m *metrics.Metrics, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	// Apply global middleware - these run on every request
	// Order matters! RequestID should be first, then logging, then rate limiting
	r.Use(middleware.RequestID)                              // Add unique request ID to each request
	r.Use(middleware.RealIP)                                 // Get real client IP (handles proxies/load balancers)
	r.Use(custommiddleware.LoggingMiddleware(log))           // Structured logging
	r.Use(middleware.Recoverer)                              // Recover from panics and return 500
	r.Use(custommiddleware.RateLimitMiddleware(rateLimiter)) // Rate limiting per IP
	r.Use(custommiddleware.MetricsMiddleware(m))             // Collect Prometheus metrics

	// Record API routes. The paths are part of the public contract, so they
	// live at the root instead of under a version prefix.
	r.Get("/", recordHandler.Index)
	r.Post("/", recordHandler.Create)
	r.Get("/ips/", recordHandler.Search)
	r.Get("/ips/{ip}", recordHandler.GetByIP)
	r.Put("/ips/{ip}", recordHandler.Update)

	// Health check endpoint - used by load balancers and monitoring
	r.Get("/health", healthCheckHandler)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI endpoint - API documentation
	// Access at: http://localhost:3000/swagger/index.html
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}

// healthCheckHandler is a simple health check endpoint
// Returns 200 OK if the service is running
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
