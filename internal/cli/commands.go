package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/photoseal/internal/imagex"
	"github.com/dmitrijs2005/photoseal/internal/keymanager"
	"github.com/dmitrijs2005/photoseal/internal/record"
	"github.com/dmitrijs2005/photoseal/internal/token"
)

// runSign authenticates the named image and hands the sealed bytes to the
// asset store.
//
//	photoseal sign [-camera front|back] [-location "lat,lon"] <image>
func (a *App) runSign(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	camera := fs.String("camera", "back", "camera position label")
	location := fs.String("location", "", "capture location as \"latitude,longitude\"")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: sign [-camera label] [-location lat,lon] <image>")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loc record.Location
	if *location != "" {
		loc = record.NewLocation(*location)
	}

	sealed, rec, err := a.svc.AuthenticateAndEmbed(ctx, data, *camera, loc)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	if err := a.assets.Save(ctx, name, sealed); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}

	fmt.Fprintf(a.out, "signed %s\n", name)
	fmt.Fprintf(a.out, "  hash:      %s\n", rec.ImageHash)
	fmt.Fprintf(a.out, "  device:    %s\n", rec.DeviceID)
	fmt.Fprintf(a.out, "  timestamp: %s\n", rec.TimestampString())
	return nil
}

// runVerify prints the verification verdict for the named image.
func (a *App) runVerify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: verify <image>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	outcome, err := a.svc.Verify(ctx, data)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s: %s\n", filepath.Base(args[0]), outcome.Status)
	if outcome.Record != nil {
		printRecord(a.out, outcome.Record)
	}
	if !outcome.Valid() {
		return fmt.Errorf("image is not valid: %s", outcome.Status)
	}
	return nil
}

// runInspect prints the embedded record as-is, without verifying it. Useful
// for looking at images signed by another device.
func (a *App) runInspect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: inspect <image>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	rec, err := extractRecord(data)
	if err != nil {
		return err
	}

	printRecord(a.out, rec)
	return nil
}

// runToken verifies the named image and, when valid, exports its record as a
// signed JWT.
func (a *App) runToken(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: token <image>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	outcome, err := a.svc.Verify(ctx, data)
	if err != nil {
		return err
	}
	if !outcome.Valid() {
		return fmt.Errorf("refusing to issue token: image is %s", outcome.Status)
	}

	signer, err := a.keys.GetOrCreateSigner(ctx)
	if err != nil {
		return err
	}
	sw, ok := signer.(*keymanager.SoftwareSigner)
	if !ok {
		return fmt.Errorf("signer does not expose a private key for token export")
	}

	t, err := token.Issue(outcome.Record, sw.PrivateKey())
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, t)
	return nil
}

// runPubkey prints the device's verification key in PEM form.
func (a *App) runPubkey(ctx context.Context) error {
	pub, err := a.keys.PublicKey(ctx)
	if err != nil {
		return err
	}

	pemBytes, err := keymanager.EncodePublicKeyPEM(pub)
	if err != nil {
		return err
	}

	_, err = a.out.Write(pemBytes)
	return err
}

func extractRecord(data []byte) (*record.Record, error) {
	raw, err := imagex.ExtractMetadata(data, record.Namespace)
	if err != nil {
		return nil, fmt.Errorf("no provenance record: %w", err)
	}
	return record.UnmarshalMetadata(raw)
}

func printRecord(w io.Writer, rec *record.Record) {
	fmt.Fprintf(w, "  hash:      %s\n", rec.ImageHash)
	fmt.Fprintf(w, "  timestamp: %s\n", rec.TimestampString())
	fmt.Fprintf(w, "  device:    %s\n", rec.DeviceID)
	fmt.Fprintf(w, "  camera:    %s\n", rec.CameraPosition)
	fmt.Fprintf(w, "  version:   %s\n", rec.Version)
	if rec.Location.Valid {
		fmt.Fprintf(w, "  location:  %s\n", rec.Location.Value)
	}
	fmt.Fprintf(w, "  signature: %s\n", truncate(rec.Signature, 44))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
