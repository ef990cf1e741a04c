package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gopherblog/internal/flagx"
	"github.com/dmitrijs2005/gopherblog/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Absent keys leave the
// corresponding Config fields untouched.
type JsonConfig struct {
	StoreURL       string          `json:"store_url"`
	StateDSN       string          `json:"state_dsn"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	PageSize       int             `json:"page_size"`
	AdminIdentity  string          `json:"admin_identity"`
	FilesBackend   string          `json:"files_backend"`
	S3             *JsonS3         `json:"s3"`
}

type JsonS3 struct {
	Bucket        string          `json:"bucket"`
	Region        string          `json:"region"`
	BaseEndpoint  string          `json:"base_endpoint"`
	AccessKey     string          `json:"access_key"`
	SecretKey     string          `json:"secret_key"`
	PresignExpiry *timex.Duration `json:"presign_expiry"`
}

func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.StoreURL, jc.StoreURL)
	setString(&cfg.StateDSN, jc.StateDSN)
	setString(&cfg.AdminIdentity, jc.AdminIdentity)
	setString(&cfg.FilesBackend, jc.FilesBackend)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PageSize > 0 {
		cfg.PageSize = jc.PageSize
	}

	if s := jc.S3; s != nil {
		setString(&cfg.S3.Bucket, s.Bucket)
		setString(&cfg.S3.Region, s.Region)
		setString(&cfg.S3.BaseEndpoint, s.BaseEndpoint)
		setString(&cfg.S3.AccessKey, s.AccessKey)
		setString(&cfg.S3.SecretKey, s.SecretKey)
		if s.PresignExpiry != nil {
			cfg.S3.PresignExpiry = s.PresignExpiry.Duration
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
