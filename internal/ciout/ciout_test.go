package ciout

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestFormatSingleLine(t *testing.T) {
	got, err := Format(
		Output{Key: KeyVCCPackagePath, Value: "/out/a-1.0.0.zip"},
		Output{Key: KeyServerPackageJSONPath, Value: "/out/server-package.json"},
	)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "vccPackagePath=/out/a-1.0.0.zip\nserverPackageJsonPath=/out/server-package.json\n"
	if string(got) != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatMultiLineUsesDelimiter(t *testing.T) {
	got, err := Format(Output{Key: "notes", Value: "a\nb"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(got), "\n"), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "notes<<ghadelimiter_") {
		t.Fatalf("unexpected heredoc %q", got)
	}
	delimiter := strings.TrimPrefix(lines[0], "notes<<")
	if lines[3] != delimiter || lines[1] != "a" || lines[2] != "b" {
		t.Fatalf("unexpected heredoc %q", got)
	}
}

func TestFormatRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "a=b", "a\nb", "a<<b"} {
		if _, err := Format(Output{Key: key, Value: "x"}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")
	if err := os.WriteFile(path, []byte("existing=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sink := NewFileSink(path)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sink.Write(Output{Key: KeyUnityPackagePath, Value: "/out/a.unitypackage"}); err != nil {
				t.Errorf("Write: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 9 || lines[0] != "existing=1" {
		t.Fatalf("unexpected file contents %q", data)
	}
	for _, line := range lines[1:] {
		if line != "unityPackagePath=/out/a.unitypackage" {
			t.Fatalf("interleaved line %q", line)
		}
	}
}

func TestFileSinkRequiresPath(t *testing.T) {
	if err := NewFileSink(" ").Write(Output{Key: "a", Value: "b"}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	if err := (WriterSink{W: &buf}).Write(Output{Key: "a", Value: "b"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "a=b\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
