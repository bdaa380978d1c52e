// Package config loads the service configuration.
//
// A config file is CUE unified with the embedded #Config schema, so
// unknown fields and out-of-range values are rejected and every omitted
// field takes its schema default. Environment variables override the
// file:
//
//	MONGO_URI, MONGO_DB         store.mongo_uri, store.mongo_db
//	STUDIODESK_STORE            store.driver
//	STUDIODESK_SQLITE_PATH      store.sqlite_path
//	STUDIODESK_POSTGRES_DSN     store.postgres_dsn
//	STUDIODESK_ADDR             server.addr
//	STUDIODESK_PAYMENT_POLICY   payments.policy
//	STUDIODESK_LOG_LEVEL        log.level
//
// MONGO_URI on its own also moves the default sqlite driver to mongo.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/studiodesk/internal/domain"
)

//go:embed schema.cue
var schemaSource string

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config is the decoded configuration.
type Config struct {
	Store    StoreConfig    `json:"store"`
	Server   ServerConfig   `json:"server"`
	Payments PaymentsConfig `json:"payments"`
	Log      LogConfig      `json:"log"`
}

// StoreConfig selects and locates the record store.
type StoreConfig struct {
	Driver      string `json:"driver"`
	SQLitePath  string `json:"sqlite_path"`
	PostgresDSN string `json:"postgres_dsn"`
	MongoURI    string `json:"mongo_uri"`
	MongoDB     string `json:"mongo_db"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// PaymentsConfig configures payment joins.
type PaymentsConfig struct {
	Policy string `json:"policy"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `json:"level"`
}

// Error reports a configuration that failed to parse or validate.
type Error struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()
	var ce cueerrors.Error
	if errors.As(e.Err, &ce) {
		msg = strings.TrimSpace(cueerrors.Details(ce, nil))
	}
	return fmt.Sprintf("config %s: %s", e.Source, msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Parse(nil, "defaults")
	if err != nil {
		panic(fmt.Sprintf("config: schema defaults do not decode: %v", err))
	}
	return cfg
}

// Load reads path, validates it and applies environment overrides. An
// empty path loads the defaults.
func Load(path string) (Config, error) {
	var (
		cfg Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return Config{}, fmt.Errorf("read config: %w", readErr)
		}
		cfg, err = Parse(data, path)
		if err != nil {
			return Config{}, err
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse unifies CUE source with #Config and decodes the result.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, &Error{Source: "schema", Err: err}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, &Error{Source: filename, Err: err}
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, &Error{Source: filename, Err: err}
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, &Error{Source: filename, Err: err}
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from the environment through lookup. Empty
// values are ignored. A MONGO_URI without STUDIODESK_STORE selects the
// mongo driver when cfg is still on sqlite; other drivers are kept.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) bool {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
			return true
		}
		return false
	}
	mongoURI := set("MONGO_URI", &cfg.Store.MongoURI)
	set("MONGO_DB", &cfg.Store.MongoDB)
	if !set("STUDIODESK_STORE", &cfg.Store.Driver) && mongoURI && cfg.Store.Driver == DriverSQLite {
		cfg.Store.Driver = DriverMongo
	}
	set("STUDIODESK_SQLITE_PATH", &cfg.Store.SQLitePath)
	set("STUDIODESK_POSTGRES_DSN", &cfg.Store.PostgresDSN)
	set("STUDIODESK_ADDR", &cfg.Server.Addr)
	set("STUDIODESK_PAYMENT_POLICY", &cfg.Payments.Policy)
	set("STUDIODESK_LOG_LEVEL", &cfg.Log.Level)
}

// Validate checks the cross-field rules the schema cannot express, and
// values that may have come from the environment.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for driver %q", c.Store.Driver)
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for driver %q", c.Store.Driver)
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for driver %q", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if _, err := c.PaymentPolicy(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// PaymentPolicy returns the configured policy.
func (c Config) PaymentPolicy() (domain.PaymentPolicy, error) {
	return domain.ParsePaymentPolicy(c.Payments.Policy)
}

// LogLevel returns the configured slog level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
