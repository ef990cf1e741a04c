package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	FilesBackendStore = "store"
	FilesBackendS3    = "s3"
)

// S3 describes the bucket the store keeps uploaded files in. It is only used
// when FilesBackend is "s3".
type S3 struct {
	Bucket        string
	Region        string
	BaseEndpoint  string
	AccessKey     string
	SecretKey     string
	PresignExpiry time.Duration
}

// Config holds runtime settings for the blog client.
type Config struct {
	StoreURL       string
	StateDSN       string
	RequestTimeout time.Duration
	PageSize       int

	AdminIdentity string
	AdminPassword string

	FilesBackend string
	S3           S3
}

// LoadDefaults populates c with defaults suitable for a local store.
func (c *Config) LoadDefaults() {
	c.StoreURL = "http://127.0.0.1:8090"
	c.StateDSN = "blog.db"
	c.RequestTimeout = 15 * time.Second
	c.PageSize = 50
	c.FilesBackend = FilesBackendStore
	c.S3.PresignExpiry = 15 * time.Minute
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.StoreURL == "" {
		return errors.New("store url is empty")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	switch c.FilesBackend {
	case FilesBackendStore:
	case FilesBackendS3:
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return errors.New("s3 files backend needs bucket and region")
		}
	default:
		return fmt.Errorf("unknown files backend %q", c.FilesBackend)
	}
	return nil
}

// Load builds a Config from defaults, the JSON file, the environment and the
// given command-line arguments (without the program name), in that order.
// Malformed input panics, like flag.PanicOnError.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

// LoadConfig is Load over the process arguments.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}
