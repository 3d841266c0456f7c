// Package config loads application configuration from environment
// variables.  A .env file, when present, is loaded by main before Load.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds the runtime configuration of the portal.  Each field
// corresponds to an environment variable.
type Config struct {
	Env            string // APP_ENV (dev, test, prod)
	Port           string // APP_PORT
	StoreDriver    string // STORE_DRIVER: mysql or memory
	DBUser         string // DB_USER
	DBPass         string // DB_PASS, may be empty
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	JWTSecret      string // JWT_SECRET
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST
	SeedDemoUsers  bool   // SEED_DEMO_USERS
	AcademicYear   string // CERT_ACADEMIC_YEAR, printed on education certificates
	Logging        LoggingConfig
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level         string // LOG_LEVEL: debug, info, warn, error
	Format        string // LOG_FORMAT: text or json
	IncludeCaller bool   // LOG_CALLER
}

// Load reads the configuration from the environment.  Missing or invalid
// required variables stop the process.
func Load() Config {
	cfg, err := load(os.LookupEnv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func load(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		StoreDriver:    strings.ToLower(r.str("STORE_DRIVER", StoreMySQL)),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),
		SeedDemoUsers:  parseBool(r.str("SEED_DEMO_USERS", ""), false),
		AcademicYear:   r.str("CERT_ACADEMIC_YEAR", ""),
		Logging: LoggingConfig{
			Level:         r.str("LOG_LEVEL", "info"),
			Format:        r.str("LOG_FORMAT", "text"),
			IncludeCaller: parseBool(r.str("LOG_CALLER", ""), false),
		},
	}
	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBPass = r.str("DB_PASS", "")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.must("DB_PORT")
		cfg.DBName = r.must("DB_NAME")
	case StoreMemory:
	default:
		r.fail(fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}
	return cfg, errors.Join(r.errs...)
}

// reader collects every missing or malformed variable instead of stopping
// at the first one.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) fail(err error) { r.errs = append(r.errs, err) }

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) must(key string) string {
	v := r.str(key, "")
	if v == "" {
		r.fail(fmt.Errorf("missing required env var: %s", key))
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
		r.fail(fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}
