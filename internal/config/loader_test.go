package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"remote": {
			"type": "s3",
			"region": "us-east-1",
			"bucket": "analyst-files",
			"prefix": "team-a"
		},
		"database": {
			"driver": "sqlite3",
			"dsn": "file:warehouse.db",
			"table": "measurements"
		},
		"journalPath": "/tmp/keeper.db",
		"hashCacheSize": 64
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	s3Conf, ok := cfg.Remote.(RemoteS3Conf)
	if !ok {
		t.Fatalf("LoadConfig() remote type = %T, want RemoteS3Conf", cfg.Remote)
	}
	if s3Conf.Bucket != "analyst-files" || s3Conf.Region != "us-east-1" {
		t.Errorf("LoadConfig() s3 = %+v", s3Conf)
	}
	if cfg.Remote.GetPrefix() != "team-a" {
		t.Errorf("GetPrefix() = %s, want team-a", cfg.Remote.GetPrefix())
	}
	if cfg.Database == nil || cfg.Database.Table != "measurements" {
		t.Errorf("LoadConfig() database = %+v", cfg.Database)
	}
	if cfg.JournalPath != "/tmp/keeper.db" {
		t.Errorf("LoadConfig() journalPath = %s", cfg.JournalPath)
	}
	if cfg.HashCacheSize != 64 {
		t.Errorf("LoadConfig() hashCacheSize = %d, want 64", cfg.HashCacheSize)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"remote": {"type": "s3", "region": "eu-west-1", "bucket": "b"}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.JournalPath == "" {
		t.Error("LoadConfig() did not default journalPath")
	}
	if cfg.HashCacheSize != defaultHashCacheSize {
		t.Errorf("LoadConfig() hashCacheSize = %d, want default", cfg.HashCacheSize)
	}
	if cfg.Database != nil {
		t.Errorf("LoadConfig() database = %+v, want nil", cfg.Database)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing remote", content: `{}`},
		{name: "unknown remote type", content: `{"remote": {"type": "azure", "bucket": "b"}}`},
		{name: "missing bucket", content: `{"remote": {"type": "s3", "region": "us-east-1"}}`},
		{name: "missing region and endpoint", content: `{"remote": {"type": "s3", "bucket": "b"}}`},
		{name: "half credentials", content: `{"remote": {"type": "s3", "region": "r", "bucket": "b", "accessKey": "only"}}`},
		{name: "database without dsn", content: `{"remote": {"type": "s3", "region": "r", "bucket": "b"}, "database": {"driver": "sqlite3"}}`},
		{name: "negative cache", content: `{"remote": {"type": "s3", "region": "r", "bucket": "b"}, "hashCacheSize": -1}`},
		{name: "invalid json", content: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("LoadConfig() expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}
