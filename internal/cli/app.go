// Package cli implements the photoseal command-line interface.
//
// Usage:
//
//	photoseal [global flags] <command> [arguments]
//
// Commands:
//
//	sign <image>     authenticate an image and embed the provenance record
//	verify <image>   verify an authenticated image
//	inspect <image>  print the embedded record without verifying it
//	token <image>    export the record of a valid image as a signed JWT
//	pubkey           print the device's verification key in PEM form
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrijs2005/photoseal/internal/common"
	"github.com/dmitrijs2005/photoseal/internal/config"
	"github.com/dmitrijs2005/photoseal/internal/deviceid"
	"github.com/dmitrijs2005/photoseal/internal/keymanager"
	"github.com/dmitrijs2005/photoseal/internal/logging"
	"github.com/dmitrijs2005/photoseal/internal/securestore"
	"github.com/dmitrijs2005/photoseal/internal/service"
	"github.com/dmitrijs2005/photoseal/internal/storage"
)

type App struct {
	config *config.Config
	keys   *keymanager.Manager
	svc    *service.Service
	assets storage.AssetStore
	log    logging.Logger
	out    io.Writer
}

// NewApp wires the application from config. The secure-store passphrase is
// taken from the configured environment variable, or prompted for when the
// variable is unset.
func NewApp(cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	passphrase, err := resolvePassphrase(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(passphrase)

	store, err := securestore.NewFileStore(cfg.StoreDir, passphrase)
	if err != nil {
		return nil, fmt.Errorf("opening secure store: %w", err)
	}

	keys := keymanager.New(store, log)
	ids := deviceid.New(store, log)

	var assets storage.AssetStore
	if cfg.S3Bucket != "" {
		assets = storage.NewS3AssetStore(storage.S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			UploadTimeout: cfg.S3UploadTimeout,
		})
	} else {
		assets, err = storage.NewFileAssetStore(cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("preparing output dir: %w", err)
		}
	}

	return &App{
		config: cfg,
		keys:   keys,
		svc:    service.New(keys, ids, log),
		assets: assets,
		log:    log,
		out:    os.Stdout,
	}, nil
}

func resolvePassphrase(cfg *config.Config, prompt io.Writer) ([]byte, error) {
	if cfg.PassphraseEnv != "" {
		if v, ok := os.LookupEnv(cfg.PassphraseEnv); ok {
			return []byte(v), nil
		}
	}
	return GetPassphrase(prompt)
}

// Run dispatches the subcommand found in os.Args.
func (a *App) Run(ctx context.Context) error {
	cmd, args := splitCommand(os.Args[1:])

	switch cmd {
	case "sign":
		return a.runSign(ctx, args)
	case "verify":
		return a.runVerify(ctx, args)
	case "inspect":
		return a.runInspect(ctx, args)
	case "token":
		return a.runToken(ctx, args)
	case "pubkey":
		return a.runPubkey(ctx)
	case "":
		return errors.New("no command given (expected sign, verify, inspect, token or pubkey)")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// globalFlagsWithValue are the flags consumed by the config layer; they and
// their values must be skipped when looking for the subcommand.
var globalFlagsWithValue = map[string]struct{}{
	"-c": {}, "-config": {}, "-d": {}, "-o": {}, "-b": {},
}

// splitCommand returns the first non-flag argument and everything after it.
func splitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if !strings.Contains(arg, "=") {
				if _, ok := globalFlagsWithValue[arg]; ok {
					i++ // skip the flag's value
				}
			}
			continue
		}
		return arg, args[i+1:]
	}
	return "", nil
}
