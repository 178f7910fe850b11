package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// FileName is the manifest file name inside a package source tree.
const FileName = "package.json"

// Well-known keys.
const (
	KeyName                   = "name"
	KeyVersion                = "version"
	KeyDisplayName            = "displayName"
	KeyDescription            = "description"
	KeyAuthor                 = "author"
	KeyURL                    = "url"
	KeyUnityPackageURL        = "unityPackageUrl"
	KeyIcon                   = "icon"
	KeyZipSHA256              = "zipSHA256"
	KeyDestinationFolder      = "unityPackageDestinationFolder"
	KeyDestinationFolderMetas = "unityPackageDestinationFolderMetas"
)

// ErrNotFound reports a missing manifest file.
var ErrNotFound = errors.New("manifest not found")

// Manifest is an ordered JSON object. Values are kept as raw JSON so keys the
// tool does not know about survive a load/write cycle untouched.
type Manifest struct {
	keys   []string
	values map[string]json.RawMessage
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{values: make(map[string]json.RawMessage)}
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a JSON object, tolerating comments and trailing commas.
// Duplicate keys keep their first position and their last value.
func Parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("manifest must be a JSON object")
	}

	m := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read value for %q: %w", key, err)
		}
		m.setRaw(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after manifest object")
	}
	return m, nil
}

func (m *Manifest) setRaw(key string, raw json.RawMessage) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(json.RawMessage(nil), raw...)
}

// Keys returns the keys in document order.
func (m *Manifest) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len reports the number of keys, null-valued ones included.
func (m *Manifest) Len() int {
	return len(m.keys)
}

// Raw returns the raw JSON value stored under key.
func (m *Manifest) Raw(key string) (json.RawMessage, bool) {
	raw, ok := m.values[key]
	return raw, ok
}

// Has reports whether key is present with a non-null value.
func (m *Manifest) Has(key string) bool {
	raw, ok := m.values[key]
	return ok && !isNull(raw)
}

// String returns the value of key when it is a JSON string, "" otherwise.
func (m *Manifest) String(key string) string {
	raw, ok := m.values[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Text returns the string form of key used for presence checks: the
// unquoted value for strings, "" for null or missing keys, and the compact
// JSON text for anything else.
func (m *Manifest) Text(key string) string {
	raw, ok := m.values[key]
	if !ok || isNull(raw) {
		return ""
	}
	if s, isString := decodeString(raw); isString {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}

// StringMap decodes key as an object of strings. A missing or null key
// yields an empty map.
func (m *Manifest) StringMap(key string) (map[string]string, error) {
	raw, ok := m.values[key]
	if !ok || isNull(raw) {
		return map[string]string{}, nil
	}
	out := map[string]string{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: expected an object of strings: %w", key, err)
	}
	return out, nil
}

// Set stores value under key, replacing an existing value in place or
// appending a new key.
func (m *Manifest) Set(key string, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.setRaw(key, raw)
	return nil
}

// SetString stores a string value under key.
func (m *Manifest) SetString(key, value string) {
	raw, _ := marshalValue(value)
	m.setRaw(key, raw)
}

// Delete removes key. Missing keys are ignored.
func (m *Manifest) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Name returns the package name.
func (m *Manifest) Name() string { return m.String(KeyName) }

// Version returns the package version.
func (m *Manifest) Version() string { return m.String(KeyVersion) }

// ArtifactName returns "<name>-<version><ext>".
func (m *Manifest) ArtifactName(ext string) string {
	return ArtifactBaseName(m) + ext
}

// ArtifactBaseName returns "<name>-<version>".
func ArtifactBaseName(m *Manifest) string {
	return m.Text(KeyName) + "-" + m.Text(KeyVersion)
}

// MarshalJSON writes the manifest compactly in key order, omitting null
// values.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range m.keys {
		raw := m.values[key]
		if isNull(raw) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		encodedKey, err := marshalValue(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Indented returns the manifest as two-space indented JSON with a trailing newline.
func (m *Manifest) Indented() ([]byte, error) {
	compact, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Write serializes the manifest to path.
func (m *Manifest) Write(path string) error {
	data, err := m.Indented()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// SortedKeys returns the keys of a string map in lexical order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func decodeString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

func marshalValue(value any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
