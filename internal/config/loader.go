package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hudkeep/keeper/internal/util"
)

// defaultHashCacheSize bounds the prober's hash memoization cache.
const defaultHashCacheSize = 1024

// RawConfig is used for JSON unmarshaling
type RawConfig struct {
	Remote        json.RawMessage `json:"remote"`
	Database      *DatabaseConf   `json:"database,omitempty"`
	JournalPath   string          `json:"journalPath,omitempty"`
	HashCacheSize *int            `json:"hashCacheSize,omitempty"`
}

// LoadConfig loads and parses the configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// First parse into raw config to inspect the remote type
	var rawConfig RawConfig
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(rawConfig.Remote) == 0 {
		return nil, fmt.Errorf("no remote configured")
	}

	var typeCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(rawConfig.Remote, &typeCheck); err != nil {
		return nil, fmt.Errorf("failed to determine remote type: %w", err)
	}

	var remote RemoteConf
	switch typeCheck.Type {
	case "s3":
		var s3Conf RemoteS3Conf
		if err := json.Unmarshal(rawConfig.Remote, &s3Conf); err != nil {
			return nil, fmt.Errorf("failed to parse s3 remote: %w", err)
		}
		remote = s3Conf
	default:
		return nil, fmt.Errorf("unknown remote type '%s'", typeCheck.Type)
	}

	config := &Config{
		Remote:        remote,
		Database:      rawConfig.Database,
		JournalPath:   rawConfig.JournalPath,
		HashCacheSize: defaultHashCacheSize,
	}
	if config.JournalPath == "" {
		config.JournalPath = util.GetDefaultJournalPath()
	}
	if rawConfig.HashCacheSize != nil {
		config.HashCacheSize = *rawConfig.HashCacheSize
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateConfig performs validation on the loaded configuration
func validateConfig(config *Config) error {
	switch r := config.Remote.(type) {
	case RemoteS3Conf:
		if r.Bucket == "" {
			return fmt.Errorf("s3 remote has no bucket")
		}
		if r.Region == "" && r.Endpoint == "" {
			return fmt.Errorf("s3 remote needs a region or an explicit endpoint")
		}
		if (r.AccessKey == "") != (r.SecretKey == "") {
			return fmt.Errorf("s3 remote must set both accessKey and secretKey, or neither")
		}
	default:
		return fmt.Errorf("unknown remote type")
	}

	if config.Database != nil {
		if config.Database.Driver == "" {
			return fmt.Errorf("database has no driver")
		}
		if config.Database.DSN == "" {
			return fmt.Errorf("database has no dsn")
		}
	}

	if config.HashCacheSize < 0 {
		return fmt.Errorf("hashCacheSize cannot be negative")
	}

	return nil
}
