package config

type (
	DriverConfig struct {
		Postgres Postgres
		RabbitMQ RabbitMQ
		Minio    Minio
		Logger   Logger
	}

	Postgres struct {
		Host                     string
		Port                     string
		Username                 string
		Password                 string
		DbName                   string
		SSLMode                  string
		MaxOpenConns             int
		MaxIdleConns             int
		ConnMaxLifetimeInMinutes int
	}

	RabbitMQ struct {
		Port     string
		Host     string
		Username string
		Password string
	}

	Minio struct {
		Port     string
		Host     string
		Username string
		Password string
		UseSSL   bool
	}

	Logger struct {
		Level               string
		OutputFileName      string
		OutputErrorFileName string
	}
)

type (
	InternalConfig struct {
		App        App
		FHIR       FHIR
		Aggregator Aggregator
		Search     Search
		Bundles    Bundles
		Pipeline   Pipeline
		Queues     Queues
	}

	App struct {
		Env                        string
		Port                       string
		Version                    string
		Address                    string
		Timezone                   string
		EndpointPrefix             string
		MaxRequests                int
		ShutdownTimeout            int
		MaxTimeRequestsPerSeconds  int
		RequestBodyLimitInMegabyte int
		SuperadminAPIKey           string
		SuperadminAPIKeyRateLimit  int
	}

	FHIR struct {
		BaseUrl                 string
		IdentifierSystem        string
		PatientIdentifierSystem string
		SearchPageSize          int
		ExpungeLimit            int
		ConnectTimeoutInSeconds int
		RequestTimeoutInSeconds int
	}

	Aggregator struct {
		BaseUrl string
	}

	Search struct {
		BaseUrl string
	}

	Bundles struct {
		BucketName          string
		SharedPrefix        string
		PatientPrefixFormat string
	}

	Pipeline struct {
		PracticeID          string
		DeleteRatePerSecond float64
		DeleteBurst         int
	}

	Queues struct {
		PatientProvisionedQueue    string
		PatientDecommissionedQueue string
	}
)
