package packager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"assetpack/internal/archive/unitypackage"
	"assetpack/internal/archive/zipenc"
	"assetpack/internal/assets"
	"assetpack/internal/fileutil"
	"assetpack/internal/icon"
	"assetpack/internal/logging"
	"assetpack/internal/manifest"
	"assetpack/internal/staging"
)

var copyOptions = fileutil.CopyOptions{Recursive: true, IgnoreHidden: true}

func (b *build) removeStaging(logger *slog.Logger, dir *staging.Dir) {
	if err := dir.Remove(); err != nil {
		logging.WarnWithContext(logger, "failed to remove staging directory", "staging_cleanup_failed",
			logging.String("path", dir.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run assetpack staging clean"),
			logging.String(logging.FieldImpact, "staging files left on disk"),
		)
	}
}

// zipPhase stages a copy of the source tree, writes the zip and returns its
// SHA-256.
func (b *build) zipPhase(ctx context.Context, dir *staging.Dir, outputDir string) (string, error) {
	logger := b.enter(PhaseZip)
	m := b.manifest

	if b.opts.ReleaseURL != "" {
		m.SetString(manifest.KeyURL, b.opts.ReleaseURL)
	} else {
		m.Delete(manifest.KeyURL)
	}

	if err := dir.Recreate(); err != nil {
		return "", err
	}
	defer b.removeStaging(logger, dir)

	if err := fileutil.CopyTree(b.opts.WorkingDir, dir.Path, copyOptions); err != nil {
		return "", fmt.Errorf("stage sources: %w", err)
	}
	stagedManifest := dir.Join(manifest.FileName)
	if err := m.Write(stagedManifest); err != nil {
		return "", err
	}

	candidates, err := assets.Discover(ctx, dir.Path, assets.DiscoverOptions{})
	if err != nil {
		return "", err
	}

	output := filepath.Join(outputDir, m.ArtifactName(".zip"))
	logger.Info("zipping staged package", logging.String("source", dir.Path), logging.Int("candidates", len(candidates)))
	res, err := zipenc.Build(ctx, zipenc.Options{
		Root:             dir.Path,
		Output:           output,
		Candidates:       candidates,
		AlwaysInclude:    []string{stagedManifest},
		CompressionLevel: b.opts.CompressionLevel,
		Logger:           logger,
		Now:              b.deps.Now,
	})
	if err != nil {
		return "", fmt.Errorf("write zip: %w", err)
	}

	hash, err := fileutil.HashFile(res.Path)
	if err != nil {
		return "", fmt.Errorf("hash zip: %w", err)
	}
	b.result.ZipPath = res.Path
	b.result.ZipSHA256 = hash
	b.result.ZipEntries = len(res.Entries)
	b.result.SkippedAssets = append(b.result.SkippedAssets, res.Skipped...)
	logger.Info("zip written",
		logging.String("path", res.Path),
		logging.Int("entries", len(res.Entries)),
		logging.Int("skipped", len(res.Skipped)),
		logging.String("sha256", hash),
		logging.String(logging.FieldEventType, "artifact_written"),
	)
	return hash, nil
}

// unityPackagePhase stages the source under the destination folder, adds
// the folder metas and the optional icon, then packs every candidate.
func (b *build) unityPackagePhase(ctx context.Context, dir *staging.Dir, outputDir string) (err error) {
	logger := b.enter(PhaseUnityPackage)
	m := b.manifest

	if b.opts.UnityPackageURL != "" {
		m.SetString(manifest.KeyUnityPackageURL, b.opts.UnityPackageURL)
	}

	if err := dir.Recreate(); err != nil {
		return err
	}
	defer b.removeStaging(logger, dir)

	folders, err := m.StringMap(manifest.KeyDestinationFolderMetas)
	if err != nil {
		return err
	}
	if err := assets.WriteFolderMetas(dir.Path, folders); err != nil {
		return err
	}

	destination, err := destinationDir(dir.Path, m.Text(manifest.KeyDestinationFolder))
	if err != nil {
		return err
	}
	if err := fileutil.CopyTree(b.opts.WorkingDir, destination, copyOptions); err != nil {
		return fmt.Errorf("stage sources: %w", err)
	}
	if err := m.Write(filepath.Join(destination, manifest.FileName)); err != nil {
		return err
	}

	output := filepath.Join(outputDir, m.ArtifactName(".unitypackage"))
	packer, err := unitypackage.Create(dir.Path, output, logger,
		unitypackage.WithCompressionLevel(b.opts.CompressionLevel),
		unitypackage.WithClock(b.deps.Now),
	)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := packer.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("write unitypackage: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(output)
		}
	}()

	iconPath, err := b.stageIcon(ctx, logger, dir)
	if err != nil {
		return err
	}
	if iconPath != "" {
		included, err := packer.AddAsset(iconPath)
		if err != nil {
			return fmt.Errorf("write unitypackage: %w", err)
		}
		b.result.IconIncluded = included
	}

	candidates, err := assets.Discover(ctx, dir.Path, assets.DiscoverOptions{Exclude: b.opts.ExcludePatterns})
	if err != nil {
		return err
	}
	logger.Info("packing staged assets", logging.String("source", dir.Path), logging.Int("candidates", len(candidates)))
	if err := packer.AddAssets(ctx, candidates); err != nil {
		return fmt.Errorf("write unitypackage: %w", err)
	}
	if err := packer.Flush(); err != nil {
		return fmt.Errorf("write unitypackage: %w", err)
	}

	assetCount := len(packer.Included())
	if b.result.IconIncluded {
		assetCount--
	}
	b.result.UnityPackagePath = output
	b.result.UnityPackageAssets = assetCount
	b.result.SkippedAssets = append(b.result.SkippedAssets, packer.Skipped()...)
	logger.Info("unitypackage written",
		logging.String("path", output),
		logging.Int("assets", assetCount),
		logging.Int("skipped", len(packer.Skipped())),
		logging.Bool("icon", b.result.IconIncluded),
		logging.String(logging.FieldEventType, "artifact_written"),
	)
	return nil
}

// stageIcon downloads the manifest icon into the staging root. It returns
// "" when there is no remote icon or the download is not a PNG.
func (b *build) stageIcon(ctx context.Context, logger *slog.Logger, dir *staging.Dir) (string, error) {
	raw := strings.TrimSpace(b.manifest.String(manifest.KeyIcon))
	if !icon.IsRemoteURL(raw) {
		if raw != "" {
			logger.Debug("icon is not a remote url, skipping", logging.String("icon", raw))
		}
		return "", nil
	}

	logger.Info("fetching package icon", logging.String("url", raw))
	data, err := b.deps.IconFetcher.Fetch(ctx, raw)
	if err != nil {
		return "", err
	}
	if !icon.IsPNG(data) {
		logging.WarnWithContext(logger, "icon is not a PNG, skipping", "icon_invalid",
			logging.String("url", raw),
			logging.Int("bytes", len(data)),
			logging.String(logging.FieldErrorHint, "point the icon field at a .png file"),
			logging.String(logging.FieldImpact, "unitypackage built without a thumbnail"),
		)
		return "", nil
	}

	path := dir.Join(assets.IconName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("stage icon: %w", err)
	}
	return path, nil
}

func destinationDir(root, folder string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(folder)))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s %q must be a relative folder inside the project", manifest.KeyDestinationFolder, folder)
	}
	return filepath.Join(root, clean), nil
}
