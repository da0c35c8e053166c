package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotenv reads a .env file into the process environment if one exists.
// A missing file is not an error.
func LoadDotenv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// EnvString returns the value of an environment variable and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvBool parses a boolean environment variable.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvDuration parses a duration environment variable. Bare numbers are
// interpreted as seconds for compatibility with older deployments.
func EnvDuration(key string) (time.Duration, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), true, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// FromEnv overlays environment variables onto cfg. Unset variables leave the
// corresponding field untouched.
func (c *Config) FromEnv() error {
	if value, ok := EnvString("SCRAPER_BASE_URL"); ok {
		c.BaseURL = value
	}
	if value, ok, err := EnvDuration("REQUEST_DELAY"); err != nil {
		return err
	} else if ok {
		c.RequestDelay = value
		c.ItemDelay = value
	}
	if value, ok, err := EnvDuration("REQUEST_TIMEOUT"); err != nil {
		return err
	} else if ok {
		c.Timeout = value
	}
	if value, ok, err := EnvInt("MAX_RETRIES"); err != nil {
		return err
	} else if ok {
		c.MaxRetries = value
	}
	if value, ok := EnvString("USER_AGENT"); ok {
		c.UserAgent = value
	}
	if value, ok := EnvString("OUTPUT_DIR"); ok {
		c.OutputDir = value
	}
	if value, ok := EnvString("OUTPUT_FILENAME"); ok {
		c.OutputFilename = value
	}
	if value, ok, err := EnvInt("MAX_GAMES"); err != nil {
		return err
	} else if ok {
		c.MaxGames = value
	}
	if value, ok, err := EnvBool("INCLUDE_SCREENSHOTS"); err != nil {
		return err
	} else if ok {
		c.IncludeScreenshots = value
	}
	if value, ok, err := EnvBool("INCLUDE_YOUTUBE"); err != nil {
		return err
	} else if ok {
		c.IncludeYoutube = value
	}
	if value, ok := EnvString("LINK_PATTERN"); ok {
		c.LinkPattern = value
	}
	if value, ok := EnvString("FETCH_STRATEGY"); ok {
		c.FetchStrategy = value
	}
	if value, ok := EnvString("SCRAPER_METRICS_ADDR"); ok {
		c.MetricsAddr = value
	}
	return nil
}
