package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pinemarten/covid-trends-etl/internal/domain"
)

// DefaultDatasetURL is the public home of the source dataset. It appears in
// the missing-file guidance as well, so users always see the same address.
const DefaultDatasetURL = "https://covid.ourworldindata.org/data/owid-covid-data.csv"

// DefaultCountries is the country subset the analysis was built around.
// Overridable via COUNTRIES or the config file.
var DefaultCountries = []string{
	"United States",
	"India",
	"Brazil",
	"United Kingdom",
	"Kenya",
	"South Africa",
}

// DefaultFillColumns are the seven metric columns whose missing values read
// as zero within the country subset. total_cases_per_million stays out: it
// is a derived upstream figure where zero would be fabrication.
var DefaultFillColumns = []string{
	string(domain.ColTotalCases),
	string(domain.ColNewCases),
	string(domain.ColTotalDeaths),
	string(domain.ColNewDeaths),
	string(domain.ColTotalVaccinations),
	string(domain.ColPeopleVaccinated),
	string(domain.ColPopulation),
}

// Config holds all pipeline settings. Values resolve in order: compiled
// defaults, then the optional YAML file named by CONFIG_FILE, then
// environment variables.
type Config struct {
	DatasetPath string `validate:"required"`
	DatasetURL  string `validate:"required,url"`
	OutputDir   string `validate:"required"`

	Countries   []string `validate:"required,min=1,dive,required"`
	FillColumns []string `validate:"dive,required"`

	LogLevel  string `validate:"required"`
	LogFormat string `validate:"required,oneof=json text"`

	FetchTimeout time.Duration `validate:"gt=0"`

	// MetricsAddr enables the metrics listener for the duration of the run.
	// Empty means no listener.
	MetricsAddr string `validate:"omitempty,hostname_port"`

	// SQLite history is enabled by setting a path.
	SQLitePath string

	// Kafka publishing configuration. Setting brokers enables publishing;
	// KAFKA_ENABLED overrides in either direction.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// fileConfig mirrors Config for the YAML overlay. The timeout is a string so
// the file can say "90s" rather than nanoseconds.
type fileConfig struct {
	DatasetPath  string   `yaml:"dataset_path"`
	DatasetURL   string   `yaml:"dataset_url"`
	OutputDir    string   `yaml:"output_dir"`
	Countries    []string `yaml:"countries"`
	FillColumns  []string `yaml:"fill_columns"`
	LogLevel     string   `yaml:"log_level"`
	LogFormat    string   `yaml:"log_format"`
	FetchTimeout string   `yaml:"fetch_timeout"`
	MetricsAddr  string   `yaml:"metrics_addr"`
	SQLitePath   string   `yaml:"sqlite_path"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

var validate = validator.New()

// Load reads configuration from the optional CONFIG_FILE and the environment,
// applying defaults where unset.
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	fetchTimeoutStr := pick("FETCH_TIMEOUT", file.FetchTimeout, "2m")
	fetchTimeout, err := time.ParseDuration(fetchTimeoutStr)
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	brokers := pickList("KAFKA_BROKERS", file.KafkaBrokers, nil)
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DatasetPath: pick("DATASET_PATH", file.DatasetPath, "data/owid-covid-data.csv"),
		DatasetURL:  pick("DATASET_URL", file.DatasetURL, DefaultDatasetURL),
		OutputDir:   pick("OUTPUT_DIR", file.OutputDir, "output"),

		Countries:   pickList("COUNTRIES", file.Countries, DefaultCountries),
		FillColumns: pickList("FILL_COLUMNS", file.FillColumns, DefaultFillColumns),

		LogLevel:  pick("LOG_LEVEL", file.LogLevel, "info"),
		LogFormat: pick("LOG_FORMAT", file.LogFormat, "json"),

		FetchTimeout: fetchTimeout,

		MetricsAddr: pick("METRICS_ADDR", file.MetricsAddr, ""),

		SQLitePath: pick("SQLITE_PATH", file.SQLitePath, ""),

		KafkaBrokers: brokers,
		KafkaTopic:   pick("KAFKA_TOPIC", file.KafkaTopic, "covid-latest-snapshots"),
		KafkaEnabled: kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when Kafka publishing is enabled")
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// pick resolves one string setting: environment wins, then the config file,
// then the default.
func pick(env, fileVal, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}

// pickList resolves a list setting. The environment form is comma-separated;
// entries are trimmed and empties dropped, so "a, b,," parses as ["a" "b"].
func pickList(env string, fileVal, def []string) []string {
	if v := os.Getenv(env); v != "" {
		return splitList(v)
	}
	if len(fileVal) > 0 {
		return fileVal
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FillColumnNames converts the configured fill list to typed column names.
func (c *Config) FillColumnNames() []domain.Column {
	cols := make([]domain.Column, 0, len(c.FillColumns))
	for _, s := range c.FillColumns {
		cols = append(cols, domain.Column(s))
	}
	return cols
}
