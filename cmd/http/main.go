package main

import (
	"chartseed-service/cmd/migration"
	"chartseed-service/internal/app/config"
	"chartseed-service/internal/app/delivery/http/controllers"
	"chartseed-service/internal/app/delivery/http/middlewares"
	"chartseed-service/internal/app/delivery/http/routers"
	"chartseed-service/internal/app/drivers/database"
	"chartseed-service/internal/app/drivers/httpclient"
	"chartseed-service/internal/app/drivers/logger"
	"chartseed-service/internal/app/drivers/messaging"
	"chartseed-service/internal/app/drivers/storage"
	"chartseed-service/internal/app/services/core/mappings"
	"chartseed-service/internal/app/services/core/records"
	"chartseed-service/internal/app/services/fhir/bundle"
	fhirpatients "chartseed-service/internal/app/services/fhir/patients"
	"chartseed-service/internal/app/services/fhir/resources"
	"chartseed-service/internal/app/services/provisioning"
	"chartseed-service/internal/app/services/shared/aggregator"
	"chartseed-service/internal/app/services/shared/bundlesource"
	"chartseed-service/internal/app/services/shared/events"
	"chartseed-service/internal/app/services/shared/search"
	"chartseed-service/internal/app/services/teardown"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewZapLogger(driverConfig, internalConfig)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		log.Fatal("Error loading location", zap.Error(err))
	}
	time.Local = location

	postgresDB := database.NewPostgresDB(driverConfig)
	migration.Run(postgresDB)

	minioClient := storage.NewMinio(driverConfig)
	rabbitMQConnection := messaging.NewRabbitMQ(driverConfig)
	chiRouter := chi.NewRouter()

	bootstrap := config.Bootstrap{
		Router:         chiRouter,
		PostgresDB:     postgresDB,
		Minio:          minioClient,
		Logger:         log,
		RabbitMQ:       rabbitMQConnection,
		InternalConfig: internalConfig,
		DriverConfig:   driverConfig,
	}
	bootstrapingTheApp(bootstrap)

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		log.Info("Server starting", zap.String("address", internalConfig.App.Port))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Info("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeout),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		log.Error("Error closing connections", zap.Error(err))
	}

	log.Info("Server exiting")
}

func bootstrapingTheApp(bootstrap config.Bootstrap) {
	// Middlewares
	middlewares := middlewares.NewMiddlewares(bootstrap.Logger, bootstrap.InternalConfig)

	if bootstrap.InternalConfig.App.Env == "development" {
		accessLog := logger.NewLogrusLogger(bootstrap.InternalConfig)
		bootstrap.Router.Use(middlewares.RequestLogger(bootstrap.InternalConfig.App, accessLog))
	}

	// Outbound HTTP
	httpClient := httpclient.NewHTTPClient(bootstrap.InternalConfig)

	// Clinical-resource store clients
	bundleFhirClient := bundle.NewBundleFhirClient(bootstrap.InternalConfig.FHIR.BaseUrl, httpClient, bootstrap.Logger)
	patientFhirClient := fhirpatients.NewPatientFhirClient(bootstrap.InternalConfig.FHIR.BaseUrl, bootstrap.InternalConfig.FHIR.SearchPageSize, httpClient, bootstrap.Logger)
	resourceFhirClient := resources.NewResourceFhirClient(bootstrap.InternalConfig.FHIR.BaseUrl, bootstrap.InternalConfig.FHIR.ExpungeLimit, httpClient, bootstrap.Logger)

	// Seed bundles
	bundleSource := bundlesource.NewMinioBundleSource(
		bootstrap.Minio,
		bootstrap.InternalConfig.Bundles.BucketName,
		bootstrap.InternalConfig.Bundles.SharedPrefix,
		bootstrap.InternalConfig.Bundles.PatientPrefixFormat,
		bootstrap.Logger,
	)

	// Record services
	aggregatorClient := aggregator.NewAggregatorService(bootstrap.InternalConfig.Aggregator.BaseUrl, httpClient, bootstrap.Logger)
	searchClient := search.NewSearchService(bootstrap.InternalConfig.Search.BaseUrl, httpClient, bootstrap.Logger)

	// Events
	eventPublisher, err := events.NewEventPublisherService(
		bootstrap.RabbitMQ,
		bootstrap.Logger,
		bootstrap.InternalConfig.Queues.PatientProvisionedQueue,
		bootstrap.InternalConfig.Queues.PatientDecommissionedQueue,
	)
	if err != nil {
		bootstrap.Logger.Fatal("Failed to initialize event publisher", zap.Error(err))
	}

	// Postgres repositories
	mappingRepository := mappings.NewIdentifierMappingPostgresRepository(bootstrap.PostgresDB, bootstrap.Logger)
	recordRepository := records.NewPatientRecordPostgresRepository(bootstrap.PostgresDB, bootstrap.Logger)

	// Provisioning
	provisioningUsecase := provisioning.NewProvisioningUsecase(
		bundleSource,
		bundleFhirClient,
		patientFhirClient,
		mappingRepository,
		recordRepository,
		aggregatorClient,
		searchClient,
		eventPublisher,
		bootstrap.InternalConfig,
		bootstrap.Logger,
	)
	provisioningController := controllers.NewProvisioningController(bootstrap.Logger, provisioningUsecase)

	// Teardown
	teardownUsecase := teardown.NewTeardownUsecase(
		bundleSource,
		patientFhirClient,
		resourceFhirClient,
		mappingRepository,
		recordRepository,
		eventPublisher,
		bootstrap.InternalConfig,
		bootstrap.Logger,
	)
	teardownController := controllers.NewTeardownController(bootstrap.Logger, teardownUsecase)

	routers.SetupRoutes(bootstrap.Router, bootstrap.InternalConfig, bootstrap.Logger, middlewares, provisioningController, teardownController)
}
