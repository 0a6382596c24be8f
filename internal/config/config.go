// Package config holds runtime settings for the photoseal CLI.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - StoreDir: directory of the sealed secure store (key material, device id).
//   - OutputDir: directory authenticated images are written to.
//   - PassphraseEnv: name of the environment variable holding the store
//     passphrase; when unset or empty, the CLI prompts on the terminal.
//   - S3*: optional object-storage upload of authenticated images; disabled
//     while S3Bucket is empty.
type Config struct {
	StoreDir      string
	OutputDir     string
	PassphraseEnv string

	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3BaseEndpoint  string
	S3UploadTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreDir = ".photoseal"
	c.OutputDir = "sealed"
	c.PassphraseEnv = "PHOTOSEAL_PASSPHRASE"
	c.S3Region = "us-east-1"
	c.S3UploadTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
