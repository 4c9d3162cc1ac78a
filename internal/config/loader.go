package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load builds a Config from the process environment, filling unset fields
// from their default tags, then validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := populate(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envTag is the parsed form of a field's env, envAlt, default and required
// struct tags.
type envTag struct {
	name     string
	alt      string
	fallback string
	required bool
}

func tagOf(f reflect.StructField) envTag {
	return envTag{
		name:     f.Tag.Get("env"),
		alt:      f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}
}

// resolve returns the raw value for the tag. An empty result means the
// field keeps its zero value.
func (e envTag) resolve() (string, error) {
	for _, key := range []string{e.name, e.alt} {
		if key == "" {
			continue
		}
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	if e.required {
		return "", fmt.Errorf("required environment variable %s is not set", e.name)
	}
	return e.fallback, nil
}

// populate walks the sections of Config. Nested structs are sections; leaf
// fields without an env tag are left alone.
func populate(section reflect.Value) error {
	for i := range section.NumField() {
		f := section.Type().Field(i)
		dst := section.Field(i)
		if !f.IsExported() {
			continue
		}

		if f.Type.Kind() == reflect.Struct {
			if err := populate(dst); err != nil {
				return err
			}
			continue
		}

		tag := tagOf(f)
		if tag.name == "" {
			continue
		}
		raw, err := tag.resolve()
		if err != nil {
			return err
		}
		if raw == "" {
			continue
		}
		if err := assign(dst, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", tag.name, raw, err)
		}
	}

	return nil
}

// assign parses raw into dst. Supported kinds are string, bool, int,
// int64, time.Duration and comma-separated []string.
func assign(dst reflect.Value, raw string) error {
	switch {
	case dst.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		dst.SetInt(int64(d))

	case dst.Kind() == reflect.String:
		dst.SetString(raw)

	case dst.Kind() == reflect.Int, dst.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		dst.SetInt(n)

	case dst.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		dst.SetBool(b)

	case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.String:
		dst.Set(reflect.ValueOf(splitList(raw)))

	default:
		return fmt.Errorf("unsupported field type: %s", dst.Type())
	}

	return nil
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports every invalid setting at once, one per line.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	if c.Dataset.SourceURL == "" {
		errs = append(errs, "DATASET_SOURCE_URL must not be empty")
	}
	if c.Dataset.Path == "" {
		errs = append(errs, "DATASET_PATH must not be empty")
	}
	if c.Dataset.FetchTimeout <= 0 {
		errs = append(errs, "DATASET_FETCH_TIMEOUT must be positive")
	}
	switch strings.ToLower(c.Dataset.Backend) {
	case BackendFile:
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATASET_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		errs = append(errs, fmt.Sprintf("DATASET_BACKEND (%q) must be one of: file, postgres", c.Dataset.Backend))
	}
	if c.Dataset.Publish && c.Database.URL == "" {
		errs = append(errs, "DATASET_PUBLISH is true but DATABASE_URL is empty")
	}

	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Affiliate.ProductASIN == "" {
		errs = append(errs, "AFFILIATE_PRODUCT_ASIN must not be empty")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Database.URL != "" {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Dataset: {Source: %q, Path: %q, Backend: %q, Publish: %v}, ",
		c.Dataset.SourceURL, c.Dataset.Path, c.Dataset.Backend, c.Dataset.Publish))
	b.WriteString(fmt.Sprintf("Database: {URL: %q, MaxConns: %d}, ", dbURL, c.Database.MaxConns))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q, File: %q}",
		c.Logging.Level, c.Logging.Format, c.Logging.File))
	b.WriteString("}")
	return b.String()
}
