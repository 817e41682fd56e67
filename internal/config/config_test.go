package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/owid-covid-data.csv", cfg.DatasetPath)
	assert.Equal(t, DefaultDatasetURL, cfg.DatasetURL)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, []string{
		"United States", "India", "Brazil", "United Kingdom", "Kenya", "South Africa",
	}, cfg.Countries)
	assert.Equal(t, []string{
		"total_cases", "new_cases", "total_deaths", "new_deaths",
		"total_vaccinations", "people_vaccinated", "population",
	}, cfg.FillColumns)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.SQLitePath)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "covid-latest-snapshots", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATASET_PATH", "/tmp/owid.csv")
	t.Setenv("DATASET_URL", "https://example.com/owid.csv")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("COUNTRIES", "India, Brazil")
	t.Setenv("FILL_COLUMNS", "total_cases,new_cases")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("FETCH_TIMEOUT", "30s")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("SQLITE_PATH", "/tmp/history.db")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/owid.csv", cfg.DatasetPath)
	assert.Equal(t, "https://example.com/owid.csv", cfg.DatasetURL)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, []string{"India", "Brazil"}, cfg.Countries)
	assert.Equal(t, []string{"total_cases", "new_cases"}, cfg.FillColumns)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "/tmp/history.db", cfg.SQLitePath)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
dataset_path: /data/covid.csv
countries:
  - India
  - Kenya
fill_columns:
  - total_cases
fetch_timeout: 90s
kafka_brokers:
  - broker:9092
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/covid.csv", cfg.DatasetPath)
	assert.Equal(t, []string{"India", "Kenya"}, cfg.Countries)
	assert.Equal(t, []string{"total_cases"}, cfg.FillColumns)
	assert.Equal(t, 90*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"broker:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)

	// Untouched settings keep their defaults.
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, DefaultDatasetURL, cfg.DatasetURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataset_path: /data/from-file.csv\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATASET_PATH", "/data/from-env.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/from-env.csv", cfg.DatasetPath)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("countries: [unclosed"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_NegativeFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "-5s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_InvalidDatasetURL(t *testing.T) {
	t.Setenv("DATASET_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_InvalidMetricsAddr(t *testing.T) {
	t.Setenv("METRICS_ADDR", "no-port-here")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaBrokersImplyEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_EmptyCountries(t *testing.T) {
	t.Setenv("COUNTRIES", " , ,")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestFillColumnNames(t *testing.T) {
	cfg := &Config{FillColumns: []string{"total_cases", "population"}}
	cols := cfg.FillColumnNames()
	require.Len(t, cols, 2)
	assert.Equal(t, "total_cases", string(cols[0]))
	assert.Equal(t, "population", string(cols[1]))
}
