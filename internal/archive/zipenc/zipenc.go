package zipenc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"assetpack/internal/assets"
	"assetpack/internal/logging"
)

// Options configures one zip build.
type Options struct {
	// Root is the staged tree; entry names are relative to it.
	Root string
	// Output is the archive path. An existing file is replaced.
	Output string
	// Candidates are absolute file paths under Root, written in order.
	Candidates []string
	// AlwaysInclude lists files written without meta pairing checks.
	AlwaysInclude []string
	// CompressionLevel is the deflate level; zero means best compression.
	CompressionLevel int
	Logger           *slog.Logger
	Now              func() time.Time
}

// Result describes a written archive.
type Result struct {
	Path    string
	Entries []string
	Skipped []assets.Skipped
}

// Build writes the zip archive. Files that fail meta pairing are skipped
// with a warning. On error the partial archive is removed.
func Build(ctx context.Context, opts Options) (result Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	level := opts.CompressionLevel
	if level == 0 {
		level = flate.BestCompression
	}
	if opts.Root == "" || opts.Output == "" {
		return Result{}, errors.New("zip: root and output are required")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return Result{}, fmt.Errorf("resolve root: %w", err)
	}
	output, err := filepath.Abs(opts.Output)
	if err != nil {
		return Result{}, fmt.Errorf("resolve output: %w", err)
	}

	if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("remove existing archive: %w", err)
	}
	zipFile, err := os.Create(output)
	if err != nil {
		return Result{}, fmt.Errorf("create zip file: %w", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close zip file: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(output)
			result = Result{}
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("finalize zip: %w", closeErr)
		}
	}()

	always := make(map[string]bool, len(opts.AlwaysInclude))
	for _, p := range opts.AlwaysInclude {
		always[filepath.Clean(p)] = true
	}

	seen := make(map[string]bool, len(opts.Candidates))
	ordered := make([]string, 0, len(opts.Candidates)+len(opts.AlwaysInclude))
	for _, p := range append(append([]string(nil), opts.Candidates...), opts.AlwaysInclude...) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			ordered = append(ordered, clean)
		}
	}

	result.Path = output
	for _, path := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return result, fmt.Errorf("zip: %s is outside %s", path, root)
		}
		rel = filepath.ToSlash(rel)

		if !always[path] {
			if reason := assets.Classify(path); reason != "" {
				result.Skipped = append(result.Skipped, assets.Skipped{Path: rel, Reason: reason})
				logging.WarnWithContext(logger, skipMessage(reason), "asset_skipped",
					logging.String("path", rel),
					logging.String("reason", string(reason)),
					logging.String(logging.FieldErrorHint, "add or remove the matching .meta file"),
					logging.String(logging.FieldImpact, "file left out of zip"),
				)
				continue
			}
		}

		if err := addFile(zipWriter, path, rel, now()); err != nil {
			return result, err
		}
		result.Entries = append(result.Entries, rel)
		logger.Debug("zip entry written", logging.String("path", rel))
	}

	return result, nil
}

func addFile(zw *zip.Writer, path, name string, modified time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create file header: %w", err)
	}
	header.Name = name
	header.Method = zip.Deflate
	header.Modified = modified

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func skipMessage(reason assets.Reason) string {
	if reason == assets.ReasonOrphanMeta {
		return "meta file has no matching asset, skipping"
	}
	return "missing .meta for file, skipping"
}
