package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Build", statusError, "aborted", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Build:", "[ERROR] aborted")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Build", statusOK, "done", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeBuffer(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestFormatSize(t *testing.T) {
	if got := formatSize(2048); got != "2.0 KiB" {
		t.Fatalf("formatSize(2048) = %q", got)
	}
	if got := formatSize(-1); got != "-" {
		t.Fatalf("formatSize(-1) = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := formatAge(now.Add(-3*time.Hour), now); got != "3 hours ago" {
		t.Fatalf("formatAge = %q", got)
	}
	if got := formatAge(time.Time{}, now); got != "-" {
		t.Fatalf("formatAge(zero) = %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") || !strings.Contains(out, "A") {
		t.Fatalf("unexpected table %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("empty headers should render nothing")
	}
}
