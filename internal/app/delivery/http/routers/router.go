package routers

import (
	"chartseed-service/internal/app/config"
	"chartseed-service/internal/app/delivery/http/controllers"
	"chartseed-service/internal/app/delivery/http/middlewares"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func SetupRoutes(
	router *chi.Mux,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
	middlewares *middlewares.Middlewares,
	provisioningController *controllers.ProvisioningController,
	teardownController *controllers.TeardownController,
) {

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID", "x-api-key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	router.Use(cors.Handler(corsOptions))

	router.Use(middlewares.RequestIDMiddleware)
	router.Use(middlewares.Logging(logger))
	router.Use(middlewares.BodyLimit)

	// Holders of the configured API key get the wider per-second budget.
	normalLimiter, apiKeyLimiter := middlewares.CreateRateLimiters()
	router.Use(middlewares.APIKeyAuth)
	router.Use(middlewares.ConditionalRateLimit(normalLimiter, apiKeyLimiter))

	router.Use(middlewares.ErrorHandler)

	endpointPrefix := fmt.Sprintf("/%s", internalConfig.App.EndpointPrefix)
	versionPrefix := fmt.Sprintf("/%s", internalConfig.App.Version)

	router.Route(endpointPrefix, func(r chi.Router) {
		r.Route(versionPrefix, func(r chi.Router) {
			r.Route("/patients", func(r chi.Router) {
				attachProvisioningRoutes(r, middlewares, provisioningController)
				attachTeardownRoutes(r, middlewares, teardownController)
			})
		})
	})
}
