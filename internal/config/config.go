// Package config loads application settings from a YAML file with
// environment variable overrides.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	LocalCachePath          string        `yaml:"local_cache_path" env:"LOCAL_CACHE_PATH" env-default:"gymtrack.db"`
	ProbeTimeout            time.Duration `yaml:"probe_timeout" env-default:"5s"`
	HTTPServer              `yaml:"http_server"`
	AMQP                    `yaml:"amqp"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// AMQP configures the optional notification queue. An empty URL disables
// the broker and notifications go to the log only.
type AMQP struct {
	URL   string `yaml:"url" env:"AMQP_URL"`
	Queue string `yaml:"queue" env-default:"gymtrack_events"`
}

// MustLoad reads the config file named by CONFIG_PATH and exits on any
// failure.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
