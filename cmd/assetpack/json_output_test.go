package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestWriteJSONKeepsURLsVerbatim(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	url := "https://example.com/dl?a=1&b=<2>"
	if err := writeJSON(cmd, map[string]string{"url": url}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, url) {
		t.Fatalf("url escaped in output: %s", out)
	}
	if !strings.Contains(out, "\n  \"url\"") {
		t.Fatalf("output not indented: %q", out)
	}

	var decoded map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["url"] != url {
		t.Fatalf("url = %q", decoded["url"])
	}
}
