package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gopherblog/internal/flagx"
)

// Environment variables understood by parseEnv.
const (
	EnvStoreURL       = "BLOG_STORE_URL"
	EnvStateDSN       = "BLOG_STATE_DSN"
	EnvRequestTimeout = "BLOG_REQUEST_TIMEOUT"
	EnvPageSize       = "BLOG_PAGE_SIZE"
	EnvAdminIdentity  = "BLOG_ADMIN_IDENTITY"
	EnvAdminPassword  = "BLOG_ADMIN_PASSWORD"
	EnvFilesBackend   = "BLOG_FILES_BACKEND"
	EnvS3Bucket       = "BLOG_S3_BUCKET"
	EnvS3Region       = "BLOG_S3_REGION"
	EnvS3Endpoint     = "BLOG_S3_ENDPOINT"
	EnvS3AccessKey    = "BLOG_S3_ACCESS_KEY"
	EnvS3SecretKey    = "BLOG_S3_SECRET_KEY"
	EnvS3Expiry       = "BLOG_S3_PRESIGN_EXPIRY"
)

func loadDotenv(args []string) {
	if path := flagx.EnvFilePath(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

func parseEnv(cfg *Config, args []string) {
	loadDotenv(args)

	envString(&cfg.StoreURL, EnvStoreURL)
	envString(&cfg.StateDSN, EnvStateDSN)
	envString(&cfg.AdminIdentity, EnvAdminIdentity)
	envString(&cfg.AdminPassword, EnvAdminPassword)
	envString(&cfg.FilesBackend, EnvFilesBackend)
	envString(&cfg.S3.Bucket, EnvS3Bucket)
	envString(&cfg.S3.Region, EnvS3Region)
	envString(&cfg.S3.BaseEndpoint, EnvS3Endpoint)
	envString(&cfg.S3.AccessKey, EnvS3AccessKey)
	envString(&cfg.S3.SecretKey, EnvS3SecretKey)
	envDuration(&cfg.RequestTimeout, EnvRequestTimeout)
	envDuration(&cfg.S3.PresignExpiry, EnvS3Expiry)

	if v, ok := os.LookupEnv(EnvPageSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		cfg.PageSize = n
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
