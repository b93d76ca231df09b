// Package decode turns binary method-trace captures into the decoded text
// consumed by diverge.ParseTrace.
package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

// ErrEmptyOutput is returned when a decoder produced no text.
var ErrEmptyOutput = errors.New("decoder produced no output")

// Decoder turns the trace file at path into decoded trace text.
type Decoder interface {
	Decode(ctx context.Context, path string) (string, error)
}

// Func adapts a function to the Decoder interface.
type Func func(ctx context.Context, path string) (string, error)

// Decode calls f.
func (f Func) Decode(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// DefaultBinary is the trace dump tool looked up on PATH when none is configured.
const DefaultBinary = "dmtracedump"

// Error reports a failed decoder process.
type Error struct {
	Path   string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Dmtrace runs the external dump tool as "<Binary> -o <path>" and returns its
// standard output. A non-zero exit or an empty output is a hard failure.
type Dmtrace struct {
	Binary  string
	Timeout time.Duration // 0 means no limit beyond ctx
}

// Decode runs the dump tool for path.
func (d Dmtrace) Decode(ctx context.Context, path string) (string, error) {
	bin := d.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-o", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logrus.Debugf("running %s -o %s", bin, path)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return "", &Error{Path: path, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	if stdout.Len() == 0 {
		return "", &Error{Path: path, Err: ErrEmptyOutput}
	}
	return stdout.String(), nil
}

// ZstdExt marks pre-decoded files stored zstd-compressed.
const ZstdExt = ".zst"

// File reads trace files that already hold decoded text. Files ending in
// ZstdExt are decompressed first.
type File struct{}

// Decode reads path.
func (File) Decode(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening decoded trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ZstdExt) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decoded trace %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", &Error{Path: path, Err: ErrEmptyOutput}
	}
	return string(data), nil
}

// WriteCompressed stores decoded text zstd-compressed at path, so later runs
// can use File instead of re-running the dump tool.
func WriteCompressed(path, text string) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer func() { _ = enc.Close() }()
	if err := os.WriteFile(path, enc.EncodeAll([]byte(text), nil), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Caching wraps a Decoder and stores every successful result next to the
// input as "<path>.txt.zst". Existing cache files are used instead of
// invoking the wrapped decoder.
type Caching struct {
	Decoder Decoder
}

// CachePath returns the cache file used for path.
func CachePath(path string) string {
	return path + ".txt" + ZstdExt
}

// Decode returns the cached text for path, decoding and caching on a miss.
// Cache write failures are logged and do not fail the decode.
func (c Caching) Decode(ctx context.Context, path string) (string, error) {
	cache := CachePath(path)
	if _, err := os.Stat(cache); err == nil {
		text, err := File{}.Decode(ctx, cache)
		if err == nil {
			return text, nil
		}
		logrus.Warnf("ignoring unreadable decode cache %s: %v", cache, err)
	}
	text, err := c.Decoder.Decode(ctx, path)
	if err != nil {
		return "", err
	}
	if err := WriteCompressed(cache, text); err != nil {
		logrus.Warnf("could not write decode cache: %v", err)
	}
	return text, nil
}
