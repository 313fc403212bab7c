// Package config loads server configuration from an optional YAML file
// with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/janus-access/server/internal/janus/credential"
)

type Config struct {
	Server   ServerConfig          `yaml:"server"`
	DB       DBConfig              `yaml:"db"`
	Auth     AuthConfig            `yaml:"auth"`
	Hashing  credential.HashParams `yaml:"hashing"`
	Face     FaceConfig            `yaml:"face"`
	Lockout  LockoutConfig         `yaml:"lockout"`
	Actuator ActuatorConfig        `yaml:"actuator"`
	Images   ImagesConfig          `yaml:"images"`
	Monitor  MonitorConfig         `yaml:"relay_monitor"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Env  string `yaml:"env"` // "dev" | "prod"
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type FaceConfig struct {
	RecognizerURL string  `yaml:"recognizer_url"`
	Threshold     float64 `yaml:"threshold"`
}

type LockoutConfig struct {
	MaxAttempts int           `yaml:"max_attempts"` // 0 disables lockout
	Window      time.Duration `yaml:"window"`
}

type ActuatorConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type ImagesConfig struct {
	Dir string `yaml:"dir"`
}

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables the relay monitor
}

// Default returns the baseline configuration before any file or env
// overrides.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080", Env: "dev"},
		DB:       DBConfig{Path: "./data/janus.db"},
		Auth:     AuthConfig{TokenTTL: 24 * time.Hour},
		Hashing:  credential.DefaultHashParams(),
		Face:     FaceConfig{Threshold: 0.8},
		Lockout:  LockoutConfig{MaxAttempts: 5, Window: 15 * time.Minute},
		Actuator: ActuatorConfig{Timeout: 5 * time.Second},
		Images:   ImagesConfig{Dir: "./data/captures"},
		Monitor:  MonitorConfig{Interval: 5 * time.Minute},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path
// is non-empty) and then with JANUS_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Server.Env != "dev" && cfg.Server.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Server.Env = "dev"
	}
	if cfg.Server.Env == "prod" && cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("auth.jwt_secret is required in prod")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getenvDefault("JANUS_HTTP_ADDR", c.Server.Addr)
	c.Server.Env = strings.ToLower(getenvDefault("JANUS_ENV", c.Server.Env))
	c.DB.Path = getenvDefault("JANUS_DB_PATH", c.DB.Path)
	c.Auth.JWTSecret = getenvDefault("JANUS_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = getenvDuration("JANUS_TOKEN_TTL", c.Auth.TokenTTL)
	c.Face.RecognizerURL = getenvDefault("JANUS_FACE_RECOGNIZER_URL", c.Face.RecognizerURL)
	c.Face.Threshold = getenvFloat("JANUS_FACE_THRESHOLD", c.Face.Threshold)
	c.Lockout.MaxAttempts = getenvInt("JANUS_LOCKOUT_MAX_ATTEMPTS", c.Lockout.MaxAttempts)
	c.Lockout.Window = getenvDuration("JANUS_LOCKOUT_WINDOW", c.Lockout.Window)
	c.Actuator.Timeout = getenvDuration("JANUS_ACTUATOR_TIMEOUT", c.Actuator.Timeout)
	c.Images.Dir = getenvDefault("JANUS_IMAGES_DIR", c.Images.Dir)
	c.Monitor.Interval = getenvDuration("JANUS_RELAY_MONITOR_INTERVAL", c.Monitor.Interval)
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
