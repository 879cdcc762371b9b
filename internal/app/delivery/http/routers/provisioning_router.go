package routers

import (
	"chartseed-service/internal/app/delivery/http/controllers"
	"chartseed-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachProvisioningRoutes(router chi.Router, middlewares *middlewares.Middlewares, provisioningController *controllers.ProvisioningController) {
	router.Post("/{patient_id}/provision", provisioningController.ProvisionPatient)
}
