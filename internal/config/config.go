package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	CodesFile     string
	OutputDir     string
	Stores        []string
	PacingMin     time.Duration
	PacingMax     time.Duration
	NavTimeout    time.Duration
	RedirectWait  time.Duration
	ContainerWait time.Duration
	SettleDelay   time.Duration
}

type BrowserConfig struct {
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxConns int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. Variables from a .env file
// (or the given files) are applied first without overriding the process
// environment; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	pacing := getDurationOrDefault("SCRAPER_PACING", time.Second)

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			CodesFile:     getEnvOrDefault("SCRAPER_CODES_FILE", "codigos.csv"),
			OutputDir:     getEnvOrDefault("SCRAPER_OUTPUT_DIR", "output"),
			Stores:        getStringSliceOrDefault("SCRAPER_STORES", nil),
			PacingMin:     pacing,
			PacingMax:     getDurationOrDefault("SCRAPER_PACING_MAX", pacing),
			NavTimeout:    getDurationOrDefault("SCRAPER_NAV_TIMEOUT", 30*time.Second),
			RedirectWait:  getDurationOrDefault("SCRAPER_REDIRECT_WAIT", 5*time.Second),
			ContainerWait: getDurationOrDefault("SCRAPER_CONTAINER_WAIT", 8*time.Second),
			SettleDelay:   getDurationOrDefault("SCRAPER_SETTLE_DELAY", 4*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", DefaultUserAgent),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "es-PE,es;q=0.9,en;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/Lima"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "es-PE"),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "price_scraper"),
			MaxConns: getIntOrDefault("DB_MAX_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:price_runs"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
	}

	return cfg, nil
}

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of json, text, console")
	}

	if c.Redis.Enabled && c.Redis.Stream == "" {
		return fmt.Errorf("REDIS_STREAM is required when REDIS_ENABLED is set")
	}

	return nil
}

// ValidateScraper checks the settings of the scraper CLI. The database is
// optional there, and events only reach Redis through it.
func (c *Config) ValidateScraper() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Scraper.CodesFile == "" {
		return fmt.Errorf("SCRAPER_CODES_FILE is required")
	}

	if c.Scraper.OutputDir == "" {
		return fmt.Errorf("SCRAPER_OUTPUT_DIR is required")
	}

	if c.Scraper.PacingMin < 0 {
		return fmt.Errorf("SCRAPER_PACING cannot be negative")
	}

	if c.Scraper.PacingMin > c.Scraper.PacingMax {
		return fmt.Errorf("SCRAPER_PACING cannot be greater than SCRAPER_PACING_MAX")
	}

	if c.Scraper.NavTimeout <= 0 || c.Scraper.RedirectWait <= 0 || c.Scraper.ContainerWait <= 0 {
		return fmt.Errorf("scraper timeouts must be positive")
	}

	if c.Scraper.SettleDelay < 0 {
		return fmt.Errorf("SCRAPER_SETTLE_DELAY cannot be negative")
	}

	if c.Database.Enabled && c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}

	if c.Redis.Enabled && !c.Database.Enabled {
		return fmt.Errorf("REDIS_ENABLED requires DB_ENABLED: events are relayed from the outbox")
	}

	return nil
}

// ValidateAPI checks the settings of the API server, which always reads
// from the database regardless of DB_ENABLED.
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
