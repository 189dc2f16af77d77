package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fanportal/tracking-system/internal/api/handler"
	"github.com/fanportal/tracking-system/internal/carrier"
	"github.com/fanportal/tracking-system/internal/carrier/dhl"
	"github.com/fanportal/tracking-system/internal/carrier/fedex"
	"github.com/fanportal/tracking-system/internal/carrier/ups"
	"github.com/fanportal/tracking-system/internal/core/service"
	mongodb "github.com/fanportal/tracking-system/internal/infrastructure/db/mongo"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("tracking"))

	// --- Dependencies ---
	carriers := carrier.NewRegistry()
	carriers.Register(ups.New(log))
	carriers.Register(fedex.New(log))
	carriers.Register(dhl.New(log))

	orders := mongodb.NewOrderRegistry(db)
	payloads := mongodb.NewPayloadStore(db)
	trackingService := service.NewTrackingService(orders, payloads, carriers, nil, log)
	trackingHandler := handler.NewTrackingHandler(trackingService)

	// --- Tracking routes ---
	e.GET("/orders/:order_id/tracking", trackingHandler.Get)
	e.POST("/orders", trackingHandler.Register)
	e.POST("/carriers/:carrier/payloads/:order_id", trackingHandler.Ingest)

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
