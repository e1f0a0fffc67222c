package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures. Sink credentials are
// checked separately by SinkConfig.Validate because only upload needs them.
func (c *Config) Validate() error {
	var errs []string

	// Paths validation
	if c.Paths.Root == "" && (c.Paths.Raw == "" || c.Paths.Processed == "") {
		errs = append(errs, "DATA_ROOT is required unless RAW_DIR and PROCESSED_DIR are set")
	}

	// Sink validation
	if !validSinkKinds[strings.ToLower(c.Sink.Kind)] {
		errs = append(errs, fmt.Sprintf("SINK_KIND (%q) must be one of: rest, postgres, sqlite, mssql", c.Sink.Kind))
	}
	if c.Sink.Table == "" {
		errs = append(errs, "SINK_TABLE must not be empty")
	}
	if c.Sink.Timeout <= 0 {
		errs = append(errs, "SINK_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.BatchSize <= 0 {
		errs = append(errs, "UPLOAD_BATCH_SIZE must be positive")
	}

	// Migrate validation
	if len(c.Migrate.Strategies) == 0 {
		errs = append(errs, "MIGRATE_STRATEGIES must list at least one strategy")
	}
	for _, s := range c.Migrate.Strategies {
		if !validStrategies[strings.ToLower(s)] {
			errs = append(errs, fmt.Sprintf("MIGRATE_STRATEGIES entry %q must be one of: rpc, direct", s))
		}
	}
	if c.Migrate.RPCFunction == "" {
		errs = append(errs, "MIGRATE_RPC_FUNCTION must not be empty")
	}

	// Metrics validation
	validBackends := map[string]bool{"none": true, "datadog": true}
	if !validBackends[strings.ToLower(c.Metrics.Backend)] {
		errs = append(errs, fmt.Sprintf("METRICS_BACKEND (%q) must be one of: none, datadog", c.Metrics.Backend))
	}
	if c.Metrics.FlushEvery <= 0 {
		errs = append(errs, "METRICS_FLUSH_EVERY must be positive")
	}

	// Logging validation
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

var (
	validSinkKinds  = map[string]bool{"rest": true, "postgres": true, "sqlite": true, "mssql": true}
	validStrategies = map[string]bool{"rpc": true, "direct": true}
)

// Validate checks the credentials the selected sink kind needs.
func (c SinkConfig) Validate() error {
	var errs []string

	switch strings.ToLower(c.Kind) {
	case "rest":
		if c.URL == "" {
			errs = append(errs, "SUPABASE_URL is required for the rest sink")
		}
		if c.Key == "" {
			errs = append(errs, "SUPABASE_SERVICE_ROLE_KEY is required for the rest sink")
		}
	case "postgres", "sqlite", "mssql":
		if c.DSN == "" {
			errs = append(errs, fmt.Sprintf("SINK_DSN (or DATABASE_URL) is required for the %s sink", c.Kind))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown SINK_KIND %q", c.Kind))
	}

	if len(errs) > 0 {
		return fmt.Errorf("sink configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like keys and connection strings are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Paths: {Raw: %q, Processed: %q}, ", c.Paths.RawDir(), c.Paths.ProcessedDir()))
	b.WriteString(fmt.Sprintf("Sink: {Kind: %q, URL: %q, Key: %s, DSN: %s, Table: %q, Timeout: %s}, ",
		c.Sink.Kind, c.Sink.URL, mask(c.Sink.Key), mask(c.Sink.DSN), c.Sink.Table, c.Sink.Timeout))
	b.WriteString(fmt.Sprintf("Upload: {BatchSize: %d, HashColumn: %q}, ",
		c.Upload.BatchSize, c.Upload.HashColumn))
	b.WriteString(fmt.Sprintf("Migrate: {DirectURL: %s, Strategies: %v, RPCFunction: %q}, ",
		mask(c.Migrate.DirectURL), c.Migrate.Strategies, c.Migrate.RPCFunction))
	b.WriteString(fmt.Sprintf("Metrics: {Backend: %q, Job: %q}, ", c.Metrics.Backend, c.Metrics.Job))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
