package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr            string
		AllowedOrigin   string
		ShutdownTimeout time.Duration
	}
	Database struct {
		URL string
	}
	Upstream struct {
		APIKey  string
		BaseURL string
		Host    string
		Timeout time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("RAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the two secrets keep their conventional, unprefixed names
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("upstream.apikey", "RAPIDAPI_KEY")

	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("server.allowedorigin", "https://mern-pnrstatus-fare.vercel.app")
	v.SetDefault("server.shutdowntimeout", "10s")
	v.SetDefault("upstream.baseurl", "https://irctc1.p.rapidapi.com")
	v.SetDefault("upstream.host", "irctc1.p.rapidapi.com")
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or malformed setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("database url is required (DATABASE_URL)")
	}
	if _, _, err := ParseDatabaseURL(c.Database.URL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Upstream.APIKey) == "" {
		return fmt.Errorf("upstream api key is required (RAPIDAPI_KEY)")
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return fmt.Errorf("upstream base url is required")
	}

	origin, err := url.Parse(c.Server.AllowedOrigin)
	if err != nil || (origin.Scheme != "http" && origin.Scheme != "https") || origin.Host == "" {
		return fmt.Errorf("allowed origin must be an absolute http(s) origin, got %q", c.Server.AllowedOrigin)
	}
	return nil
}

// Driver identifies the storage backend selected by the database url.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseDatabaseURL splits the configured url into a driver and the dsn that driver expects.
func ParseDatabaseURL(raw string) (Driver, string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DriverPostgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite database path is empty")
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(raw, "file:"):
		return DriverSQLite, strings.TrimPrefix(raw, "file:"), nil
	}
	return "", "", fmt.Errorf("unsupported database url scheme: %q", raw)
}

// loadDotEnv copies KEY=VALUE pairs from path into the process environment.
// Variables that are already set win; "export " prefixes and quotes are stripped.
func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
