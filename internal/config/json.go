package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/photoseal/internal/flagx"
	"github.com/dmitrijs2005/photoseal/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the upload timeout either as a string
// like "30s" or as integer nanoseconds.
type JsonConfig struct {
	StoreDir      string `json:"store_dir"`
	OutputDir     string `json:"output_dir"`
	PassphraseEnv string `json:"passphrase_env"`

	S3Region        string         `json:"s3_region"`
	S3Bucket        string         `json:"s3_bucket"`
	S3AccessKey     string         `json:"s3_access_key"`
	S3SecretKey     string         `json:"s3_secret_key"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	S3UploadTimeout timex.Duration `json:"s3_upload_timeout"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. When no file is named, cfg is left untouched. Read or
// unmarshal errors panic; the caller may recover if desired.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.StoreDir != "" {
		cfg.StoreDir = jc.StoreDir
	}
	if jc.OutputDir != "" {
		cfg.OutputDir = jc.OutputDir
	}
	if jc.PassphraseEnv != "" {
		cfg.PassphraseEnv = jc.PassphraseEnv
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
	if jc.S3BaseEndpoint != "" {
		cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.S3UploadTimeout.Duration != 0 {
		cfg.S3UploadTimeout = time.Duration(jc.S3UploadTimeout.Duration)
	}
}
