package packager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"assetpack/internal/assets"
	"assetpack/internal/ciout"
	"assetpack/internal/icon"
	"assetpack/internal/logging"
	"assetpack/internal/manifest"
	"assetpack/internal/preflight"
	"assetpack/internal/staging"
)

// ErrManifestNotFound reports a source directory without package.json.
var ErrManifestNotFound = fmt.Errorf("package %w", manifest.ErrNotFound)

// ErrOutputNotWritable reports an output directory the build cannot write to.
var ErrOutputNotWritable = errors.New("output directory is not writable")

// DefaultExcludePatterns keeps Unity's cache out of asset packages.
var DefaultExcludePatterns = []string{"Library/**"}

// Phase names a state of the build.
type Phase string

const (
	PhaseInit         Phase = "init"
	PhaseValidated    Phase = "validated"
	PhaseZip          Phase = "zip"
	PhaseUnityPackage Phase = "unitypackage"
	PhaseFinalized    Phase = "finalized"
	PhaseDone         Phase = "done"
	PhaseAborted      Phase = "aborted"
)

// Options describes one build.
type Options struct {
	WorkingDir       string
	OutputDir        string
	ReleaseURL       string
	UnityPackageURL  string
	Version          string
	SkipZip          bool
	SkipUnityPackage bool
	IsRunningOnCI    bool
	CustomFields     []manifest.Field
	// StagingRoot holds per-build staging directories. Empty selects
	// <tmp>/assetpack/staging.
	StagingRoot string
	// CompressionLevel applies to both archives; zero selects the best level.
	CompressionLevel int
	// ExcludePatterns are matched against staged paths for the asset
	// package. Nil selects DefaultExcludePatterns.
	ExcludePatterns []string
}

// Deps carries collaborators. Zero values select production defaults.
type Deps struct {
	Logger      *slog.Logger
	IconFetcher icon.Fetcher
	CIOutput    ciout.Sink
	Now         func() time.Time
	NewID       func() string
}

// Result summarizes a build. It is returned even when the build fails.
type Result struct {
	BuildID            string           `json:"buildId"`
	Name               string           `json:"name,omitempty"`
	Version            string           `json:"version,omitempty"`
	Phase              Phase            `json:"phase"`
	FailedPhase        Phase            `json:"failedPhase,omitempty"`
	Noop               bool             `json:"noop,omitempty"`
	ZipPath            string           `json:"zipPath,omitempty"`
	ZipSHA256          string           `json:"zipSHA256,omitempty"`
	ZipEntries         int              `json:"zipEntries,omitempty"`
	UnityPackagePath   string           `json:"unityPackagePath,omitempty"`
	UnityPackageAssets int              `json:"unityPackageAssets,omitempty"`
	IconIncluded       bool             `json:"iconIncluded,omitempty"`
	ServerManifestPath string           `json:"serverManifestPath,omitempty"`
	SkippedAssets      []assets.Skipped `json:"skippedAssets,omitempty"`
	StartedAt          time.Time        `json:"startedAt"`
	Duration           time.Duration    `json:"duration"`
}

type build struct {
	opts     Options
	deps     Deps
	logger   *slog.Logger
	manifest *manifest.Manifest
	result   *Result
}

// Build runs the pipeline: load and validate the manifest, then the zip
// phase and the asset package phase unless skipped, then write the
// published manifest. Each phase stages into its own freshly created
// directory, removed before the phase returns.
func Build(ctx context.Context, opts Options, deps Deps) (*Result, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.IconFetcher == nil {
		deps.IconFetcher = icon.NewHTTPFetcher(nil, 0)
	}
	if opts.ExcludePatterns == nil {
		opts.ExcludePatterns = DefaultExcludePatterns
	}
	if strings.TrimSpace(opts.StagingRoot) == "" {
		opts.StagingRoot = filepath.Join(os.TempDir(), "assetpack", "staging")
	}

	b := &build{
		opts: opts,
		deps: deps,
		result: &Result{
			BuildID:   deps.NewID(),
			Phase:     PhaseInit,
			StartedAt: deps.Now(),
		},
	}
	b.logger = logging.NewComponentLogger(deps.Logger, "packager").With(
		logging.String(logging.FieldBuildID, b.result.BuildID),
	)

	err := b.run(ctx)
	b.result.Duration = deps.Now().Sub(b.result.StartedAt)
	if err != nil {
		b.result.FailedPhase = b.result.Phase
		b.result.Phase = PhaseAborted
		logging.ErrorWithContext(b.logger, "build failed", "build_failed",
			logging.String("failed_phase", string(b.result.FailedPhase)),
			logging.Error(err),
		)
		return b.result, err
	}
	return b.result, nil
}

func (b *build) enter(phase Phase) *slog.Logger {
	b.result.Phase = phase
	logger := b.logger.With(logging.String(logging.FieldPhase, string(phase)))
	logger.Debug("phase entered", logging.String(logging.FieldEventType, "phase_enter"))
	return logger
}

func (b *build) run(ctx context.Context) error {
	if err := b.load(); err != nil {
		return err
	}
	b.enter(PhaseValidated)

	if b.opts.SkipZip && b.opts.SkipUnityPackage {
		b.result.Noop = true
		b.enter(PhaseDone)
		b.logger.Info("both archives skipped, nothing to build",
			logging.String(logging.FieldEventType, "build_noop"),
		)
		return nil
	}

	outputDir, err := b.prepareOutput()
	if err != nil {
		return err
	}

	dir, err := staging.Acquire(b.opts.StagingRoot, b.result.BuildID)
	if err != nil {
		return fmt.Errorf("acquire staging directory: %w", err)
	}
	defer func() {
		if err := dir.Release(); err != nil {
			logging.WarnWithContext(b.logger, "failed to release staging directory", "staging_release_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run assetpack staging clean"),
				logging.String(logging.FieldImpact, "staging files left on disk"),
			)
		}
	}()

	var hash string
	if !b.opts.SkipZip {
		if hash, err = b.zipPhase(ctx, dir, outputDir); err != nil {
			return err
		}
	}
	if !b.opts.SkipUnityPackage {
		if err := b.unityPackagePhase(ctx, dir, outputDir); err != nil {
			return err
		}
	}

	logger := b.enter(PhaseFinalized)
	published, err := manifest.Finalize(b.manifest, hash, outputDir)
	if err != nil {
		return err
	}
	b.result.ServerManifestPath = published
	logger.Info("published manifest written",
		logging.String("path", published),
		logging.String(logging.FieldEventType, "manifest_published"),
	)

	b.enter(PhaseDone)
	return b.emitOutputs()
}

func (b *build) load() error {
	path := filepath.Join(b.opts.WorkingDir, manifest.FileName)
	m, err := manifest.Load(path)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return err
	}

	manifest.MergeFields(m, b.opts.CustomFields)
	if v := strings.TrimSpace(b.opts.Version); v != "" {
		m.SetString(manifest.KeyVersion, v)
	}
	// A checksum in the source describes some earlier zip, never this build.
	m.Delete(manifest.KeyZipSHA256)

	if errs := manifest.Validate(m, !b.opts.SkipUnityPackage); len(errs) > 0 {
		b.logger.Error(manifest.FileName + " is invalid")
		for _, fe := range errs {
			b.logger.Error(" - "+fe.Message, logging.String("field", fe.Field))
		}
		return &manifest.ValidationError{Errors: errs}
	}

	b.manifest = m
	b.result.Name = m.Text(manifest.KeyName)
	b.result.Version = m.Text(manifest.KeyVersion)
	return nil
}

func (b *build) prepareOutput() (string, error) {
	outputDir := strings.TrimSpace(b.opts.OutputDir)
	if outputDir == "" {
		return "", errors.New("output directory is required")
	}
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if check := preflight.CheckDirectoryAccess("Output directory", outputDir); !check.Passed {
		return "", fmt.Errorf("%w: %s", ErrOutputNotWritable, check.Detail)
	}
	return outputDir, nil
}

func (b *build) emitOutputs() error {
	if !b.opts.IsRunningOnCI {
		return nil
	}
	if b.deps.CIOutput == nil {
		logging.WarnWithContext(b.logger, "running on CI without an output sink", "ci_output_missing",
			logging.String(logging.FieldErrorHint, "set GITHUB_OUTPUT or build.ci_output_file"),
			logging.String(logging.FieldImpact, "later workflow steps will not see artifact paths"),
		)
		return nil
	}

	var outputs []ciout.Output
	if b.result.ZipPath != "" {
		outputs = append(outputs, ciout.Output{Key: ciout.KeyVCCPackagePath, Value: b.result.ZipPath})
	}
	if b.result.UnityPackagePath != "" {
		outputs = append(outputs, ciout.Output{Key: ciout.KeyUnityPackagePath, Value: b.result.UnityPackagePath})
	}
	if b.result.ServerManifestPath != "" {
		outputs = append(outputs, ciout.Output{Key: ciout.KeyServerPackageJSONPath, Value: b.result.ServerManifestPath})
	}
	if err := b.deps.CIOutput.Write(outputs...); err != nil {
		return fmt.Errorf("write ci outputs: %w", err)
	}
	return nil
}
