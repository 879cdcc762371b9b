package routers

import (
	"chartseed-service/internal/app/delivery/http/controllers"
	"chartseed-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachTeardownRoutes(router chi.Router, middlewares *middlewares.Middlewares, teardownController *controllers.TeardownController) {
	router.With(middlewares.RequireSuperadminAPIKey, middlewares.DestructiveRateLimiter()).Delete("/{patient_id}", teardownController.RemovePatient)
}
