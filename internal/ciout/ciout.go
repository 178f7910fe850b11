package ciout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Build output keys.
const (
	KeyVCCPackagePath        = "vccPackagePath"
	KeyUnityPackagePath      = "unityPackagePath"
	KeyServerPackageJSONPath = "serverPackageJsonPath"
)

// Output is one named value handed to the CI runner.
type Output struct {
	Key   string
	Value string
}

// Sink receives build outputs.
type Sink interface {
	Write(outputs ...Output) error
}

// FileSink appends outputs to a file in the GitHub Actions format. The file
// is locked while appending so concurrent steps do not interleave lines.
type FileSink struct {
	path string
}

// NewFileSink returns a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the target file.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(outputs ...Output) (err error) {
	if strings.TrimSpace(s.path) == "" {
		return errors.New("ci output file is not configured")
	}
	payload, err := Format(outputs...)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ci output: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close ci output: %w", closeErr)
		}
	}()

	lock := flock.New(s.path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock ci output: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("write ci output: %w", err)
	}
	return nil
}

// WriterSink writes outputs to any writer, typically stdout.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Write(outputs ...Output) error {
	payload, err := Format(outputs...)
	if err != nil {
		return err
	}
	if _, err := s.W.Write(payload); err != nil {
		return fmt.Errorf("write ci output: %w", err)
	}
	return nil
}

// Format renders outputs as key=value lines. Multi-line values use the
// key<<DELIMITER heredoc form with a random delimiter.
func Format(outputs ...Output) ([]byte, error) {
	var buf bytes.Buffer
	for _, out := range outputs {
		key := strings.TrimSpace(out.Key)
		if key == "" || strings.ContainsAny(key, "=\r\n") || strings.Contains(key, "<<") {
			return nil, fmt.Errorf("invalid ci output key %q", out.Key)
		}
		if !strings.ContainsAny(out.Value, "\r\n") {
			fmt.Fprintf(&buf, "%s=%s\n", key, out.Value)
			continue
		}
		delimiter := "ghadelimiter_" + uuid.NewString()
		fmt.Fprintf(&buf, "%s<<%s\n%s\n%s\n", key, delimiter, out.Value, delimiter)
	}
	return buf.Bytes(), nil
}
