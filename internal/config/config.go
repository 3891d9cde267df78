package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/facility-booking/internal/availability"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing

	Policy        availability.Policy // admission policy for booking requests
	AdminEmail    string              // bootstrap privileged account (optional)
	AdminPassword string              // password for AdminEmail when it must be created
	LogLevel      string              // logrus level name
	RabbitURL     string              // AMQP URL; empty disables event publishing
	BookingLogDir string              // directory of the consumer's booking.log
}

// Load reads an optional .env file and then the environment.  Every missing
// or malformed required variable is reported in the returned error.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var r reader
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),

		AdminEmail:    strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")),
		AdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),
		BookingLogDir: envStr("BOOKING_LOG_DIR", "logs"),
	}
	policy, err := availability.ParsePolicy(os.Getenv("BOOKING_ADMISSION_POLICY"))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("BOOKING_ADMISSION_POLICY: %w", err))
	}
	cfg.Policy = policy
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		r.errs = append(r.errs, errors.New("BOOTSTRAP_ADMIN_PASSWORD is required when BOOTSTRAP_ADMIN_EMAIL is set"))
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		r.errs = append(r.errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load for main packages: configuration errors are fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	return cfg
}

// IsProd reports whether the service runs in production.
func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// reader collects errors for required variables instead of exiting on the
// first one.
type reader struct{ errs []error }

func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.errs = append(r.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}
