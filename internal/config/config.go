package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/frostx76/microservices-project/pkg/database"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// Service names, also used as the default log "service" field.
const (
	ServiceAuth    = "auth"
	ServiceUsers   = "users"
	ServiceFilms   = "films"
	ServiceReviews = "reviews"
)

// VerifyMode selects how a service checks bearer tokens.
type VerifyMode string

const (
	VerifyLocal  VerifyMode = "local"
	VerifyRemote VerifyMode = "remote"
)

var defaultPorts = map[string]string{
	ServiceAuth:    "8000",
	ServiceFilms:   "8001",
	ServiceReviews: "8002",
	ServiceUsers:   "8003",
}

type Config struct {
	Service  string
	HTTPAddr string
	Database database.Config
	Log      utilities.Config
	JWT      JWTConfig
	Remote   RemoteConfig

	PasswordHasher         string
	RegistrationCompensate bool
	SnowflakeNode          int64
}

type JWTConfig struct {
	Secret     string
	TTL        time.Duration
	VerifyMode VerifyMode
}

// RemoteConfig locates sibling services. All calls share Timeout and are never retried.
type RemoteConfig struct {
	AuthURL  string
	FilmsURL string
	UsersURL string
	Timeout  time.Duration
}

// Load builds the configuration for one service from the environment.
// A .env file is loaded first when present.
func Load(service string) (*Config, error) {
	_ = godotenv.Load()

	port, ok := defaultPorts[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("REMOTE_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMOTE_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Service:  service,
		HTTPAddr: getEnv("HTTP_ADDR", "0.0.0.0:"+port),
		Database: database.ConfigFromEnv(),
		Log:      utilities.ConfigFromEnv(),
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			TTL:        ttl,
			VerifyMode: VerifyMode(getEnv("TOKEN_VERIFY_MODE", string(VerifyRemote))),
		},
		Remote: RemoteConfig{
			AuthURL:  getEnv("AUTH_SERVICE_URL", "http://auth-service:8000"),
			FilmsURL: getEnv("FILMS_SERVICE_URL", "http://films:8001"),
			UsersURL: getEnv("USERS_SERVICE_URL", "http://users:8003"),
			Timeout:  timeout,
		},
		PasswordHasher:         getEnv("PASSWORD_HASHER", "bcrypt"),
		RegistrationCompensate: getEnvBool("REGISTRATION_COMPENSATE", true),
		SnowflakeNode:          utilities.NodeFromEnv(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the settings a service cannot run without.
func (c *Config) Validate() error {
	switch c.JWT.VerifyMode {
	case VerifyLocal, VerifyRemote:
	default:
		return fmt.Errorf("invalid TOKEN_VERIFY_MODE %q", c.JWT.VerifyMode)
	}
	// there is no fallback secret: whoever signs or decodes tokens must be given one
	if c.NeedsSecret() && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be positive")
	}
	switch c.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("invalid PASSWORD_HASHER %q", c.PasswordHasher)
	}
	return nil
}

// NeedsSecret reports whether this service holds the signing secret.
func (c *Config) NeedsSecret() bool {
	return c.Service == ServiceAuth || c.JWT.VerifyMode == VerifyLocal
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
