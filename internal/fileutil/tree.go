package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrDirectoryNotFound reports a copy source that is missing or not a directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// CopyOptions controls CopyTree.
type CopyOptions struct {
	Recursive bool
	// IgnoreHidden skips files and directories whose name starts with ".",
	// including the whole subtree of a hidden directory.
	IgnoreHidden bool
}

// IsHidden reports whether a base name denotes a hidden entry.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// CopyTree copies the contents of src into dst by value. dst is created if
// absent; existing files with the same name are overwritten.
func CopyTree(src, dst string, opts CopyOptions) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("copy %s: %w", src, ErrDirectoryNotFound)
		}
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("copy %s: not a directory: %w", src, ErrDirectoryNotFound)
	}

	// Cache entries before creating dst so copying into a subdirectory of
	// src does not recurse into its own output.
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	var dirs []os.DirEntry
	for _, entry := range entries {
		if opts.IgnoreHidden && IsHidden(entry.Name()) {
			continue
		}
		if entry.IsDir() {
			dirs = append(dirs, entry)
			continue
		}
		if !entry.Type().IsRegular() {
			// Symlinks are copied by content when they point at a file.
			target, err := os.Stat(filepath.Join(src, entry.Name()))
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		}
		if err := copyEntry(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}

	if !opts.Recursive {
		return nil
	}
	for _, dir := range dirs {
		if err := CopyTree(filepath.Join(src, dir.Name()), filepath.Join(dst, dir.Name()), opts); err != nil {
			return err
		}
	}
	return nil
}

func copyEntry(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if err := CopyFileMode(src, dst, info.Mode().Perm()|0o200); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// RemoveTree deletes path and everything below it. Permissions are reset
// first so read-only entries do not block removal. A missing path is not an
// error.
func RemoveTree(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("remove tree: empty path")
	}
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				// Unreadable directory: make it traversable and keep going.
				_ = os.Chmod(p, 0o755)
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			_ = os.Chmod(p, 0o755)
		} else {
			_ = os.Chmod(p, 0o644)
		}
		return nil
	})

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
