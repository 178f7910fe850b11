package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteText writes body to root/rel, creating parent directories.
func WriteText(t testing.TB, root, rel, body string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// GUID returns a deterministic 32 character GUID for n.
func GUID(n int) string {
	return fmt.Sprintf("%032x", n)
}

// MetaText returns minimal meta file contents carrying guid.
func MetaText(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\nDefaultImporter:\n  externalObjects: {}\n  userData: \n"
}

// WriteMeta writes the sidecar meta for root/rel.
func WriteMeta(t testing.TB, root, rel, guid string) string {
	t.Helper()
	return WriteText(t, root, rel+".meta", MetaText(guid))
}

// WriteAsset writes an asset and its meta and returns the asset path.
func WriteAsset(t testing.TB, root, rel, body, guid string) string {
	t.Helper()
	path := WriteText(t, root, rel, body)
	WriteMeta(t, root, rel, guid)
	return path
}

// ValidManifest returns manifest fields that pass validation for both
// archives.
func ValidManifest() map[string]any {
	return map[string]any{
		"name":                          "com.example.tools",
		"version":                       "1.0.0",
		"displayName":                   "Example Tools",
		"description":                   "Tools for tests",
		"author":                        map[string]string{"name": "Example"},
		"unityPackageDestinationFolder": "Assets/Example",
		"unityPackageDestinationFolderMetas": map[string]string{
			"Assets/Example": GUID(0xe0),
		},
	}
}

// WriteManifest writes fields as package.json in dir.
func WriteManifest(t testing.TB, dir string, fields map[string]any) string {
	t.Helper()
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		t.Fatalf("encode manifest: %v", err)
	}
	return WriteText(t, dir, "package.json", string(data))
}
