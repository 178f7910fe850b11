package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"assetpack/internal/config"
	"assetpack/internal/manifest"
	"assetpack/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	source     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITHUB_OUTPUT", "")
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	source := filepath.Join(base, "src")
	testsupport.WriteManifest(t, source, testsupport.ValidManifest())
	testsupport.WriteMeta(t, source, "package.json", testsupport.GUID(1))
	testsupport.WriteAsset(t, source, "Runtime/Tool.cs", "class Tool {}\n", testsupport.GUID(2))
	testsupport.WriteMeta(t, source, "Runtime", testsupport.GUID(3))

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, source: source}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIBuildInspectExtract(t *testing.T) {
	env := setupCLITestEnv(t)
	out := filepath.Join(env.baseDir, "dist")

	stdout, _, err := runCLI(t, []string{
		"build", env.source, out,
		"--releaseUrl", "https://example.com/tools.zip",
		"--customField", "license=MIT",
	}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, stdout, "com.example.tools 1.0.0")
	requireContains(t, stdout, "com.example.tools-1.0.0.zip")
	requireContains(t, stdout, "zipSHA256:")
	requireContains(t, stdout, "[OK] done")

	published, err := manifest.Load(filepath.Join(out, manifest.PublishedFileName))
	if err != nil {
		t.Fatalf("load published manifest: %v", err)
	}
	if published.String("license") != "MIT" || published.String(manifest.KeyURL) != "https://example.com/tools.zip" {
		t.Fatalf("unexpected published manifest keys %v", published.Keys())
	}

	pkgPath := filepath.Join(out, "com.example.tools-1.0.0.unitypackage")
	stdout, _, err = runCLI(t, []string{"inspect", pkgPath}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, stdout, "Assets/Example/Runtime/Tool.cs")
	requireContains(t, stdout, testsupport.GUID(2))
	requireContains(t, stdout, "Total: 4 assets")

	stdout, _, err = runCLI(t, []string{"--json", "inspect", pkgPath}, "")
	if err != nil {
		t.Fatalf("inspect --json: %v", err)
	}
	var payload struct {
		Assets []struct {
			GUID     string `json:"guid"`
			Pathname string `json:"pathname"`
			Folder   bool   `json:"folder"`
		} `json:"assets"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("decode inspect json: %v (%s)", err, stdout)
	}
	if len(payload.Assets) != 4 || !payload.Assets[0].Folder || payload.Assets[0].Pathname != "Assets/Example" {
		t.Fatalf("unexpected inspect payload %+v", payload.Assets)
	}

	dest := filepath.Join(env.baseDir, "project")
	stdout, _, err = runCLI(t, []string{"extract", pkgPath, dest, "--crlf"}, "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, stdout, "Extracted")
	body, err := os.ReadFile(filepath.Join(dest, "Assets", "Example", "Runtime", "Tool.cs"))
	if err != nil {
		t.Fatalf("read extracted asset: %v", err)
	}
	if string(body) != "class Tool {}\r\n" {
		t.Fatalf("expected CRLF line endings, got %q", body)
	}
}

func TestCLIBuildJSONWithCIOutputFile(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCIOutputFile("github_output"))
	out := filepath.Join(env.baseDir, "dist")

	stdout, _, err := runCLI(t, []string{"--json", "build", env.source, out, "--action", "--nounity", "--version", "1.2.3"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var result struct {
		Phase     string `json:"phase"`
		Version   string `json:"version"`
		ZipPath   string `json:"zipPath"`
		ZipSHA256 string `json:"zipSHA256"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode build json: %v (%s)", err, stdout)
	}
	if result.Phase != "done" || result.Version != "1.2.3" || len(result.ZipSHA256) != 64 {
		t.Fatalf("unexpected build result %+v", result)
	}

	data, err := os.ReadFile(env.cfg.Build.CIOutputFile)
	if err != nil {
		t.Fatalf("read ci output: %v", err)
	}
	requireContains(t, string(data), "vccPackagePath="+result.ZipPath+"\n")
	requireContains(t, string(data), "serverPackageJsonPath=")
	if strings.Contains(string(data), "unityPackagePath=") {
		t.Fatalf("unity package output should be absent: %s", data)
	}
}

func TestCLIBuildValidationFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteManifest(t, env.source, map[string]any{"name": "com.example.tools", "version": "1.0.0"})

	_, stderr, err := runCLI(t, []string{"build", env.source, filepath.Join(env.baseDir, "dist")}, env.configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, stderr, "package.json is invalid:")
	requireContains(t, stderr, " - Display name cannot be empty.")
}

func TestCLIBuildRequiresOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.OutputDir = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"build", env.source}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "output directory is required") {
		t.Fatalf("expected missing output error, got %v", err)
	}
}

func TestCLIBuildRejectsBadCustomField(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"build", env.source, t.TempDir(), "--customField", "=oops"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--customField") {
		t.Fatalf("expected custom field error, got %v", err)
	}
}

func TestCLIBuildNoop(t *testing.T) {
	env := setupCLITestEnv(t)
	out := filepath.Join(env.baseDir, "dist")
	stdout, _, err := runCLI(t, []string{"build", env.source, out, "--novcc", "--nounity"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, stdout, "nothing built")
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("noop build should not create the output directory")
	}
}

func TestCLIStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	leftover := filepath.Join(env.cfg.Paths.StagingDir, "leftover-build")
	testsupport.WriteFile(t, filepath.Join(leftover, "package.json"), 2048)

	stdout, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, stdout, "leftover-build")
	requireContains(t, stdout, "Total: 1 directories")

	stdout, _, err = runCLI(t, []string{"staging", "clean"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, stdout, "No staging directories to clean")

	stdout, _, err = runCLI(t, []string{"staging", "clean", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean --all: %v", err)
	}
	requireContains(t, stdout, "Removed 1 staging directories")
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatal("leftover staging directory should be removed")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Staging directory:")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[build]\ncompression_level = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected invalid config error")
	}
}
