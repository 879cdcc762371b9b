package config

import (
	"chartseed-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		Postgres: Postgres{
			Host:                     utils.GetEnvString("POSTGRES_HOST", "localhost"),
			Port:                     utils.GetEnvString("POSTGRES_PORT", "5432"),
			Username:                 utils.GetEnvString("POSTGRES_USERNAME", "defaultUsername"),
			Password:                 utils.GetEnvString("POSTGRES_PASSWORD", "defaultPassword"),
			DbName:                   utils.GetEnvString("POSTGRES_DB_NAME", "chartseed"),
			SSLMode:                  utils.GetEnvString("POSTGRES_SSL_MODE", "disable"),
			MaxOpenConns:             utils.GetEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:             utils.GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeInMinutes: utils.GetEnvInt("POSTGRES_CONN_MAX_LIFETIME_IN_MINUTES", 30),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "defaultPassword"),
		},
		Minio: Minio{
			Port:     utils.GetEnvString("MINIO_PORT", "9000"),
			Host:     utils.GetEnvString("MINIO_HOST", "localhost"),
			Username: utils.GetEnvString("MINIO_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MINIO_PASSWORD", "defaultPassword"),
			UseSSL:   utils.GetEnvBool("MINIO_USE_SSL", false),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", "development"),
			Port:                       utils.GetEnvString("APP_PORT", ":8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1"),
			Address:                    utils.GetEnvString("APP_ADDRESS", "localhost"),
			Timezone:                   utils.GetEnvString("APP_TIMEZONE", "UTC"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 10),
			ShutdownTimeout:            utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
			MaxTimeRequestsPerSeconds:  utils.GetEnvInt("APP_MAX_TIME_REQUESTS_PER_SECONDS", 10),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 6),
			SuperadminAPIKey:           utils.GetEnvString("APP_SUPERADMIN_API_KEY", ""),
			SuperadminAPIKeyRateLimit:  utils.GetEnvInt("APP_SUPERADMIN_API_KEY_RATE_LIMIT", 60),
		},
		FHIR: FHIR{
			BaseUrl:                 utils.GetEnvString("FHIR_BASE_URL", "http://localhost:8103/fhir/R4"),
			IdentifierSystem:        utils.GetEnvString("FHIR_IDENTIFIER_SYSTEM", "https://fhir.chartseed.io/identifiers/external"),
			PatientIdentifierSystem: utils.GetEnvString("FHIR_PATIENT_IDENTIFIER_SYSTEM", "https://fhir.chartseed.io/identifiers/patient"),
			SearchPageSize:          utils.GetEnvInt("FHIR_SEARCH_PAGE_SIZE", 200),
			ExpungeLimit:            utils.GetEnvInt("FHIR_EXPUNGE_LIMIT", 1000),
			ConnectTimeoutInSeconds: utils.GetEnvInt("FHIR_CONNECT_TIMEOUT_IN_SECONDS", 5),
			RequestTimeoutInSeconds: utils.GetEnvInt("FHIR_REQUEST_TIMEOUT_IN_SECONDS", 30),
		},
		Aggregator: Aggregator{
			BaseUrl: utils.GetEnvString("AGGREGATOR_BASE_URL", "http://localhost:8085"),
		},
		Search: Search{
			BaseUrl: utils.GetEnvString("SEARCH_BASE_URL", "http://localhost:9090"),
		},
		Bundles: Bundles{
			BucketName:          utils.GetEnvString("BUNDLES_BUCKET_NAME", "chartseed-bundles"),
			SharedPrefix:        utils.GetEnvString("BUNDLES_SHARED_PREFIX", "shared/"),
			PatientPrefixFormat: utils.GetEnvString("BUNDLES_PATIENT_PREFIX_FORMAT", "patients/%s/"),
		},
		Pipeline: Pipeline{
			PracticeID:          utils.GetEnvString("PIPELINE_PRACTICE_ID", "a-16349"),
			DeleteRatePerSecond: utils.GetEnvFloat("PIPELINE_DELETE_RATE_PER_SECOND", 10),
			DeleteBurst:         utils.GetEnvInt("PIPELINE_DELETE_BURST", 1),
		},
		Queues: Queues{
			PatientProvisionedQueue:    utils.GetEnvString("APP_RABBITMQ_PROVISIONED_QUEUE", "patient.provisioned"),
			PatientDecommissionedQueue: utils.GetEnvString("APP_RABBITMQ_DECOMMISSIONED_QUEUE", "patient.decommissioned"),
		},
	}
}
