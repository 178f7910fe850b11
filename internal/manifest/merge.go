package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Field is one caller-supplied key/value pair merged into a manifest.
type Field struct {
	Key   string
	Value string
}

// ParseField splits "key=value" on the first '='. The value may itself
// contain '=' characters.
func ParseField(s string) (Field, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return Field{}, fmt.Errorf("custom field %q: expected key=value", s)
	}
	return Field{Key: key, Value: value}, nil
}

// MergeFields sets each field as a string value. Existing keys keep their
// position; a key supplied twice takes the later value.
func MergeFields(m *Manifest, fields []Field) {
	for _, f := range fields {
		m.SetString(f.Key, f.Value)
	}
}

// Merge sets every entry of fields. New keys are appended in lexical order.
func Merge(m *Manifest, fields map[string]string) {
	for _, key := range SortedKeys(fields) {
		m.SetString(key, fields[key])
	}
}

// PublishedFileName is the name of the finalized manifest in the output directory.
const PublishedFileName = "server-package.json"

// Finalize drops any stale checksum, records hash when non-empty and writes
// the published manifest into outputDir. It returns the written path.
func Finalize(m *Manifest, hash, outputDir string) (string, error) {
	if m == nil {
		return "", errors.New("finalize: nil manifest")
	}
	m.Delete(KeyZipSHA256)
	if hash != "" {
		m.SetString(KeyZipSHA256, hash)
	}
	path := filepath.Join(outputDir, PublishedFileName)
	if err := m.Write(path); err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	return path, nil
}
