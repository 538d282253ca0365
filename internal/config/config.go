package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database  *dbConfig
	Service   *svcConfig
	Inference *inferenceConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"assessment"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string   `envconfig:"ASSESSMENT_PLANNER_ADDRESS" default:":3443"`
	MetricsAddress string   `envconfig:"ASSESSMENT_PLANNER_METRICS_ADDRESS" default:":8080"`
	BaseUrl        string   `envconfig:"ASSESSMENT_PLANNER_BASE_URL" default:"https://localhost:3443"`
	LogLevel       string   `envconfig:"ASSESSMENT_PLANNER_LOG_LEVEL" default:"info"`
	CorsOrigins    []string `envconfig:"ASSESSMENT_PLANNER_CORS_ORIGINS" default:"http://localhost:3000"`
}

type inferenceConfig struct {
	// BaseURL points at the remote vision-language inference provider.
	BaseURL string `envconfig:"INFERENCE_SERVICE_URL" default:"http://localhost:8000"`
	ApiKey  string `envconfig:"INFERENCE_SERVICE_API_KEY" default:""`
	// Timeout bounds one request to the provider, not the whole job.
	Timeout time.Duration `envconfig:"INFERENCE_SERVICE_TIMEOUT" default:"45s"`

	// Polling policy. The defaults are tuned for a backend with a cold-start
	// profile of two to three minutes.
	PollInitialInterval time.Duration `envconfig:"INFERENCE_POLL_INITIAL_INTERVAL" default:"5s"`
	PollMidInterval     time.Duration `envconfig:"INFERENCE_POLL_MID_INTERVAL" default:"10s"`
	PollLateInterval    time.Duration `envconfig:"INFERENCE_POLL_LATE_INTERVAL" default:"15s"`
	PollMidThreshold    time.Duration `envconfig:"INFERENCE_POLL_MID_THRESHOLD" default:"30s"`
	PollLateThreshold   time.Duration `envconfig:"INFERENCE_POLL_LATE_THRESHOLD" default:"120s"`
	PollDeadline        time.Duration `envconfig:"INFERENCE_POLL_DEADLINE" default:"10m"`
	PollMaxFailures     int           `envconfig:"INFERENCE_POLL_MAX_FAILURES" default:"3"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
