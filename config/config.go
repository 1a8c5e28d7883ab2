// Package config loads process configuration from the environment,
// per SPEC_FULL.md §9/§6. It replaces the teacher's hard-coded
// constant block (the old HTTPPort/WSPort/ADBPath consts) with a typed
// struct populated by envconfig, optionally seeded from a .env file.
package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config mirrors the environment variables named in SPEC_FULL.md §6.
type Config struct {
	AdbPath        string `envconfig:"ADB_PATH" default:"adb"`
	SimbaServerURL string `envconfig:"SIMBA_SERVER_URL" default:""`
	HTTPPort       int    `envconfig:"HTTP_PORT" default:"8000"`
	WebSocketPort  int    `envconfig:"WEBSOCKET_PORT" default:"8080"`
	NodeEnv        string `envconfig:"NODE_ENV" default:"production"`
}

// Load reads a .env file if present (missing files are not an error,
// matching godotenv's typical best-effort use) and then populates a
// Config from the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDevelopment reports whether NODE_ENV names a development
// environment. runServe uses it only to keep gin in debug mode; CORS
// headers and log level are the same in every environment.
func (c Config) IsDevelopment() bool {
	return c.NodeEnv == "development" || c.NodeEnv == "dev"
}
