package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"assetpack/internal/manifest"
	"assetpack/internal/packager"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func printBuildResult(out io.Writer, result *packager.Result, colorize bool) {
	if result.Noop {
		fmt.Fprintln(out, renderStatusLine("Build", statusWarn, "--novcc and --nounity given, nothing built", colorize))
		return
	}

	rows := make([][]string, 0, 3)
	add := func(kind, path string, detail string) {
		if path == "" {
			return
		}
		rows = append(rows, []string{kind, path, formatSize(fileSize(path)), detail})
	}
	add("VCC zip", result.ZipPath, fmt.Sprintf("%d entries", result.ZipEntries))
	unityDetail := fmt.Sprintf("%d assets", result.UnityPackageAssets)
	if result.IconIncluded {
		unityDetail += ", icon"
	}
	add("Unity package", result.UnityPackagePath, unityDetail)
	add("Server manifest", result.ServerManifestPath, "")

	fmt.Fprintf(out, "%s %s\n\n", result.Name, result.Version)
	fmt.Fprintln(out, renderTable(
		[]string{"Artifact", "Path", "Size", "Contents"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	if result.ZipSHA256 != "" {
		fmt.Fprintf(out, "\nzipSHA256: %s\n", result.ZipSHA256)
	}
	if len(result.SkippedAssets) > 0 {
		fmt.Fprintln(out)
		printLines(out, renderSectionHeader(fmt.Sprintf("Skipped (%d)", len(result.SkippedAssets)), colorize))
		for _, s := range result.SkippedAssets {
			fmt.Fprintln(out, renderStatusLine(string(s.Reason), statusWarn, s.Path, colorize))
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderStatusLine("Build", statusOK, "done in "+result.Duration.Round(time.Millisecond).String(), colorize))
}

func printBuildFailure(out io.Writer, err error) {
	var verr *manifest.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(out, manifest.FileName+" is invalid:")
		for _, fe := range verr.Errors {
			fmt.Fprintf(out, " - %s\n", fe.Message)
		}
	}
}
