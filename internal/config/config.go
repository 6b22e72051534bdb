package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	BaseURL      string
	PollInterval time.Duration
	ErrorTimeout time.Duration
	ChatPageSize int
	WriteTimeout time.Duration
	LogLevel     string
	LogFormat    string
}

func Default() Config {
	return Config{
		BaseURL:      "http://localhost:8080",
		PollInterval: 5 * time.Second,
		ErrorTimeout: 10 * time.Second,
		ChatPageSize: 50,
		WriteTimeout: 3 * time.Second,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load reads .env files (missing ones are fine) and then the LANDLORD_* environment.
// Every bad value is reported, not just the first.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, falling back to Default for unset keys.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs error

	if v, ok := lookup("LANDLORD_BASE_URL"); ok {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("LANDLORD_BASE_URL: %q is not an http(s) url", v))
		} else {
			cfg.BaseURL = v
		}
	}
	errs = multierr.Append(errs, duration(lookup, "LANDLORD_POLL_INTERVAL", &cfg.PollInterval))
	errs = multierr.Append(errs, duration(lookup, "LANDLORD_ERROR_TIMEOUT", &cfg.ErrorTimeout))
	errs = multierr.Append(errs, duration(lookup, "LANDLORD_WRITE_TIMEOUT", &cfg.WriteTimeout))

	if v, ok := lookup("LANDLORD_CHAT_PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("LANDLORD_CHAT_PAGE_SIZE: %w", err))
		case n < 1 || n > 250:
			errs = multierr.Append(errs, fmt.Errorf("LANDLORD_CHAT_PAGE_SIZE: %d not in 1..250", n))
		default:
			cfg.ChatPageSize = n
		}
	}

	if v, ok := lookup("LANDLORD_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LANDLORD_LOG_FORMAT"); ok {
		switch v {
		case "json", "console":
			cfg.LogFormat = v
		default:
			errs = multierr.Append(errs, fmt.Errorf("LANDLORD_LOG_FORMAT: %q, want json or console", v))
		}
	}

	if errs != nil {
		return Config{}, errs
	}
	return cfg, nil
}

func duration(lookup func(string) (string, bool), key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive", key)
	}
	*dst = d
	return nil
}
