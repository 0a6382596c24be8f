package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/photoseal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   secure store directory (default from Config)
//	-o string   output directory for authenticated images
//	-b string   S3 bucket for uploads (empty disables uploads)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with subcommand arguments.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-o", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StoreDir, "d", cfg.StoreDir, "secure store directory")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "output directory for authenticated images")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "s3 bucket for uploads")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
