package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	// Config represents an application configuration.
	Config struct {
		// The data source name (DSN) for connecting to the database.
		// When empty the service runs with the volatile in-memory store.
		DSN string `yaml:"dsn" env:"DATABASE_URI"`
		// Subconfigs.
		HTTPServer HTTPServer `yaml:"http_server"`
		Logger     Logger     `yaml:"logger"`
		RateLimit  RateLimit  `yaml:"rate_limit"`
		Snapshot   Snapshot   `yaml:"snapshot"`
	}
	// Config for HTTP server.
	HTTPServer struct {
		// The server startup address.
		Address string `yaml:"run_address" env:"RUN_ADDRESS" env-default:"127.0.0.1:8080"`
		// Read Header Timeout in seconds.
		Timeout time.Duration `yaml:"timeout" env-default:"5s"`
		// Idle timeout in seconds.
		IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
		// Shutdown timeout in seconds.
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	}
	// Config for application's logger.
	Logger struct {
		// Path to store log files.
		Path string `yaml:"path" env:"LOG_PATH"`
		// Application logging level.
		Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		// Log files details.
		MaxSizeMB  int `yaml:"max_size_mb" env-default:"500"`
		MaxBackups int `yaml:"max_backups" env-default:"3"`
		MaxAgeDays int `yaml:"max_age_days" env-default:"28"`
	}
	// Config for the withdrawal creation throttle.
	// Re-read from the environment on SIGHUP.
	RateLimit struct {
		// Minimum interval between accepted creation requests.
		Interval time.Duration `yaml:"interval" env:"RATE_LIMIT_INTERVAL" env-default:"100ms"`
		// Allowed burst above the sustained rate.
		Burst int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
	}
	// Config for client snapshot persistence.
	Snapshot struct {
		// Path of the snapshot slot file.
		Path string `yaml:"path" env:"SNAPSHOT_PATH" env-default:".withdrawal-snapshot.json"`
		// Snapshots older than TTL are discarded on restore.
		TTL time.Duration `yaml:"ttl" env:"SNAPSHOT_TTL" env-default:"5m"`
	}
)

// MustLoad returns an application configuration which is populated
// from the given configuration file, environment variables and flags.
func MustLoad() *Config {
	// Configuration yaml file path.
	configPath := flag.String("config", "./config/local.yml", "path to the config file")
	flag.Parse()

	var cfg Config

	// Load from YAML cfg file if it exists.
	if _, err := os.Stat(*configPath); err == nil {
		file, err := os.Open(*configPath)
		if err != nil {
			log.Fatalf("failed to open config file: %s", *configPath)
		}
		defer file.Close()
		if err = cleanenv.ParseYAML(file, &cfg); err != nil {
			log.Fatalf("failed to parse config file: %s", *configPath)
		}
	}

	// Read given flags.
	flag.StringVar(&cfg.HTTPServer.Address, "a", "127.0.0.1:8080", "server startup address")
	flag.StringVar(&cfg.DSN, "d", "", "server data source name")
	flag.Parse()

	// Read environment variables.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read environment variables: %v", err)
	}

	return &cfg
}
