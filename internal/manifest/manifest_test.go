package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleManifest = `{
  // hand-edited manifests keep comments
  "name": "com.example.tools",
  "version": "1.2.0",
  "displayName": "Example Tools",
  "description": "Tools",
  "author": {"name": "Example", "url": "https://example.com"},
  "legacyFolders": null,
  "vpmDependencies": {"com.vrchat.base": ">=3.5.0"},
  "zipSHA256": "stale",
  /* trailing comma below */
  "unityPackageDestinationFolder": "Assets/Example",
}`

func mustParse(t *testing.T, data string) *Manifest {
	t.Helper()
	m, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestParseJSONCPreservesOrder(t *testing.T) {
	m := mustParse(t, sampleManifest)

	want := []string{"name", "version", "displayName", "description", "author", "legacyFolders", "vpmDependencies", "zipSHA256", "unityPackageDestinationFolder"}
	if got := strings.Join(m.Keys(), ","); got != strings.Join(want, ",") {
		t.Fatalf("keys = %s", got)
	}
	if m.Name() != "com.example.tools" || m.Version() != "1.2.0" {
		t.Fatalf("unexpected name/version %q %q", m.Name(), m.Version())
	}
	if m.Has("legacyFolders") {
		t.Fatal("null value should not count as present")
	}
	if got := m.Text(KeyAuthor); !strings.Contains(got, `"name":"Example"`) {
		t.Fatalf("author text = %q", got)
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[]`, `"x"`, `{} {}`, `{"a":`} {
		if _, err := Parse([]byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestParseDuplicateKeysKeepFirstPosition(t *testing.T) {
	m := mustParse(t, `{"a":"1","b":"2","a":"3"}`)
	if got := strings.Join(m.Keys(), ","); got != "a,b" {
		t.Fatalf("keys = %s", got)
	}
	if m.String("a") != "3" {
		t.Fatalf("a = %q, want last value", m.String("a"))
	}
}

func TestMarshalOmitsNullsAndKeepsUnknownKeys(t *testing.T) {
	m := mustParse(t, sampleManifest)

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "legacyFolders") {
		t.Fatalf("null key should be omitted: %s", out)
	}
	if !strings.Contains(out, `"vpmDependencies":{"com.vrchat.base":">=3.5.0"}`) {
		t.Fatalf("unknown key should pass through unescaped: %s", out)
	}
	if strings.Index(out, `"name"`) > strings.Index(out, `"version"`) {
		t.Fatalf("key order not preserved: %s", out)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateAggregatesAllMissingFields(t *testing.T) {
	errs := Validate(New(), true)
	var fields []string
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	want := "name,version,displayName,description,author,unityPackageDestinationFolder,unityPackageDestinationFolderMetas"
	if got := strings.Join(fields, ","); got != want {
		t.Fatalf("fields = %s, want %s", got, want)
	}
	if errs[0].Message != "Package name cannot be empty." {
		t.Fatalf("unexpected message %q", errs[0].Message)
	}

	verr := &ValidationError{Errors: errs}
	if !strings.Contains(verr.Error(), "Author cannot be empty.") {
		t.Fatalf("aggregated message missing author: %s", verr.Error())
	}
}

func TestValidateZipOnlySkipsAssetFields(t *testing.T) {
	m := mustParse(t, `{"name":"a","version":"1","displayName":"A","description":"d","author":"me"}`)
	if errs := Validate(m, false); len(errs) != 0 {
		t.Fatalf("expected valid manifest, got %v", errs)
	}
	if errs := Validate(m, true); len(errs) != 2 {
		t.Fatalf("expected 2 asset package errors, got %v", errs)
	}
}

func TestValidateTreatsWhitespaceAsEmpty(t *testing.T) {
	m := mustParse(t, `{"name":"  ","version":"1","displayName":"A","description":"d","author":null}`)
	errs := Validate(m, false)
	if len(errs) != 2 || errs[0].Field != KeyName || errs[1].Field != KeyAuthor {
		t.Fatalf("unexpected errors %v", errs)
	}
}

func TestValidateRejectsPathSeparators(t *testing.T) {
	m := mustParse(t, `{"name":"../evil","version":"1","displayName":"A","description":"d","author":"me"}`)
	errs := Validate(m, false)
	if len(errs) != 1 || errs[0].Field != KeyName {
		t.Fatalf("expected name error, got %v", errs)
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("changelogUrl=https://x/y?a=b")
	if err != nil {
		t.Fatalf("ParseField: %v", err)
	}
	if f.Key != "changelogUrl" || f.Value != "https://x/y?a=b" {
		t.Fatalf("unexpected field %+v", f)
	}
	for _, bad := range []string{"novalue", "=x", ""} {
		if _, err := ParseField(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMergeOverwritesInPlace(t *testing.T) {
	m := mustParse(t, `{"name":"a","version":"1"}`)
	MergeFields(m, []Field{{Key: "version", Value: "2"}, {Key: "extra", Value: "x"}, {Key: "extra", Value: "y"}})
	Merge(m, map[string]string{"z": "1", "b": "2"})

	if got := strings.Join(m.Keys(), ","); got != "name,version,extra,b,z" {
		t.Fatalf("keys = %s", got)
	}
	if m.Version() != "2" || m.String("extra") != "y" {
		t.Fatalf("unexpected values %q %q", m.Version(), m.String("extra"))
	}
}

func TestFinalizeWritesChecksum(t *testing.T) {
	dir := t.TempDir()
	m := mustParse(t, sampleManifest)

	path, err := Finalize(m, "abc123", dir)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if path != filepath.Join(dir, PublishedFileName) {
		t.Fatalf("unexpected path %q", path)
	}
	written, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if written.String(KeyZipSHA256) != "abc123" {
		t.Fatalf("zipSHA256 = %q", written.String(KeyZipSHA256))
	}
	keys := written.Keys()
	if keys[len(keys)-1] != KeyZipSHA256 {
		t.Fatalf("checksum should be appended last, keys = %v", keys)
	}
}

func TestFinalizeWithoutHashDropsStaleChecksum(t *testing.T) {
	dir := t.TempDir()
	m := mustParse(t, sampleManifest)

	path, err := Finalize(m, "", dir)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), KeyZipSHA256) {
		t.Fatalf("stale checksum should be removed: %s", data)
	}
	if !strings.HasSuffix(string(data), "}\n") || !strings.Contains(string(data), "\n  \"name\"") {
		t.Fatalf("expected indented output: %s", data)
	}
}
