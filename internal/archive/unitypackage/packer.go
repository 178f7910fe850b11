package unitypackage

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/unicode/norm"

	"assetpack/internal/assets"
	"assetpack/internal/logging"
)

// Entry names inside a GUID directory.
const (
	entryAsset    = "asset"
	entryMeta     = "asset.meta"
	entryPathname = "pathname"
)

// ErrClosed reports use of a Packer after Close.
var ErrClosed = errors.New("unitypackage: packer is closed")

// Option customizes a Packer.
type Option func(*Packer)

// WithCompressionLevel sets the gzip level. Out-of-range values fall back
// to best compression.
func WithCompressionLevel(level int) Option {
	return func(p *Packer) {
		if level >= gzip.BestSpeed && level <= gzip.BestCompression {
			p.level = level
		}
	}
}

// WithClock overrides the modification time stamped on tar headers.
func WithClock(now func() time.Time) Option {
	return func(p *Packer) {
		if now != nil {
			p.now = now
		}
	}
}

// Packer writes assets into a gzip-compressed tar stream laid out the way
// Unity imports it: one directory per GUID holding the asset bytes, the
// verbatim meta text and the project-relative pathname.
type Packer struct {
	root   string
	sink   io.WriteCloser
	gz     *gzip.Writer
	tw     *tar.Writer
	logger *slog.Logger
	level  int
	now    func() time.Time

	seen     map[string]struct{}
	guids    map[string]string
	included []string
	skipped  []assets.Skipped
	closed   bool
}

// Create opens outputPath, replacing any existing file, and returns a
// Packer writing to it.
func Create(projectRoot, outputPath string, logger *slog.Logger, opts ...Option) (*Packer, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create unitypackage: %w", err)
	}
	return NewPacker(projectRoot, f, logger, opts...), nil
}

// NewPacker returns a Packer writing to sink. Pathnames are recorded
// relative to projectRoot. Close closes sink.
func NewPacker(projectRoot string, sink io.WriteCloser, logger *slog.Logger, opts ...Option) *Packer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if abs, err := filepath.Abs(projectRoot); err == nil {
		projectRoot = abs
	}
	p := &Packer{
		root:   canonical(projectRoot),
		sink:   sink,
		logger: logger,
		level:  gzip.BestCompression,
		now:    time.Now,
		seen:   make(map[string]struct{}),
		guids:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	gz, err := gzip.NewWriterLevel(sink, p.level)
	if err != nil {
		gz = gzip.NewWriter(sink)
	}
	p.gz = gz
	p.tw = tar.NewWriter(gz)
	return p
}

// AddAsset writes one asset. A .meta path is resolved to its asset first.
// It reports false without writing when the asset does not exist, was
// already added, lacks a meta file, or its meta carries no GUID. Errors are
// returned only for failures of the underlying stream.
func (p *Packer) AddAsset(path string) (bool, error) {
	if p.closed {
		return false, ErrClosed
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}
	fromMeta := assets.IsMeta(abs)
	assetPath := assets.AssetPath(abs)

	info, err := os.Stat(assetPath)
	if err != nil {
		if fromMeta {
			p.skip(assetPath+assets.MetaSuffix, assets.ReasonOrphanMeta, "meta file has no matching asset, skipping")
		} else {
			p.logger.Debug("asset not found", logging.String("path", assetPath))
		}
		return false, nil
	}

	key := canonical(assetPath)
	if _, dup := p.seen[key]; dup {
		return false, nil
	}
	p.seen[key] = struct{}{}

	rel, err := p.relative(key)
	if err != nil {
		return false, err
	}

	if filepath.Base(assetPath) == assets.IconName && !info.IsDir() {
		if err := p.writeFile(assets.IconName, assetPath, info.Size()); err != nil {
			return false, err
		}
		p.logger.Info("writing package icon", logging.String("path", rel))
		p.included = append(p.included, rel)
		return true, nil
	}

	metaText, err := os.ReadFile(assets.MetaPath(assetPath))
	if err != nil {
		p.skip(rel, assets.ReasonMissingMeta, "missing .meta for asset, skipping")
		return false, nil
	}
	guid, err := assets.ExtractGUID(string(metaText))
	if err != nil {
		p.skip(rel, assets.ReasonInvalidMeta, "meta file has no valid guid, skipping")
		return false, nil
	}
	if owner, taken := p.guids[guid]; taken {
		p.skip(rel, assets.ReasonDuplicate, "guid already used by "+owner+", skipping")
		return false, nil
	}
	p.guids[guid] = rel

	p.logger.Debug("writing asset", logging.String("path", rel), logging.String("guid", guid))
	if !info.IsDir() {
		if err := p.writeFile(guid+"/"+entryAsset, assetPath, info.Size()); err != nil {
			return false, err
		}
	}
	if err := p.writeBytes(guid+"/"+entryMeta, metaText); err != nil {
		return false, err
	}
	if err := p.writeBytes(guid+"/"+entryPathname, []byte(rel)); err != nil {
		return false, err
	}
	p.included = append(p.included, rel)
	return true, nil
}

// AddAssets adds each path in order. Skipped assets are logged and the
// batch continues; the first stream error stops it.
func (p *Packer) AddAssets(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := p.AddAsset(path); err != nil {
			return err
		}
	}
	return nil
}

// Flush pushes buffered tar and gzip data to the sink without closing.
func (p *Packer) Flush() error {
	if p.closed {
		return ErrClosed
	}
	if err := p.tw.Flush(); err != nil {
		return fmt.Errorf("flush tar: %w", err)
	}
	if err := p.gz.Flush(); err != nil {
		return fmt.Errorf("flush gzip: %w", err)
	}
	return nil
}

// Close finalizes the tar and gzip streams and closes the sink. Every
// layer is closed even if an earlier one fails; the first error wins.
// Later calls return nil.
func (p *Packer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var first error
	record := func(err error, what string) {
		if err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", what, err)
		}
	}
	record(p.tw.Close(), "tar")
	record(p.gz.Close(), "gzip")
	record(p.sink.Close(), "output")
	return first
}

// Included returns the project-relative paths written so far, in order.
func (p *Packer) Included() []string {
	return append([]string(nil), p.included...)
}

// Skipped returns the assets left out so far.
func (p *Packer) Skipped() []assets.Skipped {
	return append([]assets.Skipped(nil), p.skipped...)
}

func (p *Packer) skip(path string, reason assets.Reason, msg string) {
	if rel, err := p.relative(canonical(path)); err == nil {
		path = rel
	}
	p.skipped = append(p.skipped, assets.Skipped{Path: path, Reason: reason})
	logging.WarnWithContext(p.logger, msg, "asset_skipped",
		logging.String("path", path),
		logging.String("reason", string(reason)),
		logging.String(logging.FieldErrorHint, "check the asset's .meta file"),
		logging.String(logging.FieldImpact, "asset left out of unitypackage"),
	)
}

func (p *Packer) relative(path string) (string, error) {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unitypackage: %s is outside %s", path, p.root)
	}
	return filepath.ToSlash(rel), nil
}

func (p *Packer) header(name string, size int64) *tar.Header {
	return &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     size,
		ModTime:  p.now().Truncate(time.Second),
		Format:   tar.FormatUSTAR,
	}
}

func (p *Packer) writeFile(name, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := p.tw.WriteHeader(p.header(name, size)); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	n, err := io.Copy(p.tw, io.LimitReader(f, size))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if n != size {
		return fmt.Errorf("write %s: %s changed size while packing", name, path)
	}
	return nil
}

func (p *Packer) writeBytes(name string, data []byte) error {
	if err := p.tw.WriteHeader(p.header(name, int64(len(data)))); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := p.tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// canonical resolves symlinks where possible and applies NFC so the same
// file reached through different spellings is only packed once.
func canonical(path string) string {
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return norm.NFC.String(path)
}
