package config

// Config represents the overall configuration for keeper
type Config struct {
	Remote        RemoteConf
	Database      *DatabaseConf
	JournalPath   string
	HashCacheSize int
}

// RemoteConf is the interface for all remote store configurations
type RemoteConf interface {
	GetType() string
	GetPrefix() string
}

// RemoteS3Conf represents configuration for an S3-compatible object store.
// Credentials are optional: when absent the SDK default chain applies.
type RemoteS3Conf struct {
	Type      string `json:"type"`
	Endpoint  string `json:"endpoint,omitempty"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
}

func (r RemoteS3Conf) GetType() string   { return r.Type }
func (r RemoteS3Conf) GetPrefix() string { return r.Prefix }

// DatabaseConf configures the SQL destination for table loads. The DSN
// carries all connection and auth detail; keeper never parses it.
type DatabaseConf struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
	Table  string `json:"table,omitempty"`
}
