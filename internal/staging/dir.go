package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"assetpack/internal/fileutil"
)

// ErrBusy reports that another build holds the staging directory lock.
var ErrBusy = errors.New("staging directory is in use by another build")

const lockSuffix = ".lock"

// Dir is a per-build staging directory under a shared staging root. The
// directory is guarded by a sibling lock file so cleanup never removes a
// directory that a running build owns.
type Dir struct {
	ID   string
	Root string
	Path string

	lockPath string
	lock     *flock.Flock
}

// Acquire creates the staging root if needed and locks a fresh build
// directory named by id. An empty id generates a random one.
func Acquire(root, id string) (*Dir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("staging root is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}

	lockPath := filepath.Join(root, id+lockSuffix)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire staging lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", lockPath, ErrBusy)
	}

	return &Dir{
		ID:       id,
		Root:     root,
		Path:     filepath.Join(root, id),
		lockPath: lockPath,
		lock:     lock,
	}, nil
}

// Recreate deletes any previous contents and returns an empty directory.
func (d *Dir) Recreate() error {
	if err := fileutil.RemoveTree(d.Path); err != nil {
		return fmt.Errorf("clear staging directory: %w", err)
	}
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	return nil
}

// Remove deletes the staging directory but keeps the lock.
func (d *Dir) Remove() error {
	if err := fileutil.RemoveTree(d.Path); err != nil {
		return fmt.Errorf("remove staging directory: %w", err)
	}
	return nil
}

// Release removes the directory, unlocks it and deletes the lock file.
// Calling Release more than once is safe.
func (d *Dir) Release() error {
	if d == nil || d.lock == nil {
		return nil
	}
	err := d.Remove()
	if unlockErr := d.lock.Unlock(); unlockErr != nil && err == nil {
		err = fmt.Errorf("release staging lock: %w", unlockErr)
	}
	if rmErr := os.Remove(d.lockPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = fmt.Errorf("remove staging lock: %w", rmErr)
	}
	d.lock = nil
	return err
}

// Join returns a path inside the staging directory.
func (d *Dir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.Path}, elem...)...)
}

// locked reports whether a running build holds the lock for dirPath.
func locked(dirPath string) bool {
	if _, err := os.Stat(dirPath + lockSuffix); err != nil {
		return false
	}
	lock := flock.New(dirPath + lockSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		return false
	}
	if !ok {
		return true
	}
	_ = lock.Unlock()
	return false
}
