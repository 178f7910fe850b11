package unitypackage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"assetpack/internal/assets"
)

// ExtractOptions controls Extract.
type ExtractOptions struct {
	// NormalizeLineEndings rewrites bare LF as CRLF in text entries, the
	// way Unity does when importing a package.
	NormalizeLineEndings bool
}

// Extract writes every asset and its meta under destDir at its recorded
// pathname and returns the written file paths. Pathnames that would land
// outside destDir are rejected before anything is written.
func Extract(r io.Reader, destDir string, opts ExtractOptions) ([]string, error) {
	pkg, err := Read(r)
	if err != nil {
		return nil, err
	}
	dest, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", destDir, err)
	}

	targets := make([]string, len(pkg.Assets))
	for i, asset := range pkg.Assets {
		target, err := safeJoin(dest, asset.Pathname)
		if err != nil {
			return nil, err
		}
		targets[i] = target
	}

	var written []string
	write := func(path string, data []byte) error {
		if opts.NormalizeLineEndings && IsText(data) {
			data = ToCRLF(data)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	for i, asset := range pkg.Assets {
		target := targets[i]
		if asset.HasData {
			if err := write(target, asset.Data); err != nil {
				return written, err
			}
		} else if err := os.MkdirAll(target, 0o755); err != nil {
			return written, fmt.Errorf("create %s: %w", target, err)
		}
		if asset.Meta != nil {
			if err := write(assets.MetaPath(target), asset.Meta); err != nil {
				return written, err
			}
		}
	}
	if pkg.Icon != nil {
		if err := write(filepath.Join(dest, assets.IconName), pkg.Icon); err != nil {
			return written, err
		}
	}
	return written, nil
}

func safeJoin(root, pathname string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(pathname))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: pathname %q escapes destination", ErrMalformed, pathname)
	}
	return filepath.Join(root, clean), nil
}

// IsText reports whether data looks like text: the first 200 bytes contain
// no control characters other than tab, newline, vertical tab, form feed and
// carriage return, and no 0xFF byte.
func IsText(data []byte) bool {
	n := min(len(data), 200)
	for _, b := range data[:n] {
		if b < 8 || (b > 13 && b < 32) || b == 255 {
			return false
		}
	}
	return true
}

// ToCRLF inserts a carriage return before every line feed that lacks one.
func ToCRLF(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/32)
	cr := false
	for _, b := range data {
		if b == '\n' && !cr {
			out = append(out, '\r')
		}
		cr = b == '\r'
		out = append(out, b)
	}
	return out
}
