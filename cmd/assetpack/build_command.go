package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"assetpack/internal/ciout"
	"assetpack/internal/config"
	"assetpack/internal/icon"
	"assetpack/internal/manifest"
	"assetpack/internal/packager"
)

type buildFlags struct {
	releaseURL      string
	unityReleaseURL string
	version         string
	stagingDir      string
	noVCC           bool
	noUnity         bool
	action          bool
	customFields    []string
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build <path> [output]",
		Short: "Build the VCC zip and .unitypackage for a package folder",
		Long: `Build the archives for the package whose package.json lives in <path>.

Artifacts are written to [output], or to paths.output_dir when the argument
is omitted:

  <name>-<version>.zip           VCC package (skip with --novcc)
  <name>-<version>.unitypackage  Unity asset package (skip with --nounity)
  server-package.json            manifest for a VCC listing, with zipSHA256

With --action the artifact paths are also appended to $GITHUB_OUTPUT (or
build.ci_output_file) as vccPackagePath, unityPackagePath and
serverPackageJsonPath.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}

			opts, err := flags.options(cfg, args)
			if err != nil {
				return err
			}
			deps := packager.Deps{
				Logger:      logger,
				IconFetcher: icon.NewHTTPFetcher(nil, time.Duration(cfg.Build.IconTimeoutSeconds)*time.Second),
			}
			if flags.action {
				deps.CIOutput = ciSink(cmd, cfg, ctx.JSONMode())
			}

			result, buildErr := packager.Build(cmd.Context(), opts, deps)
			if ctx.JSONMode() {
				if result != nil {
					if err := writeJSON(cmd, result); err != nil {
						return err
					}
				}
				return buildErr
			}
			if buildErr != nil {
				printBuildFailure(cmd.ErrOrStderr(), buildErr)
				return buildErr
			}
			printBuildResult(cmd.OutOrStdout(), result, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.releaseURL, "releaseUrl", "", "Download URL stored as url in the published manifest")
	cmd.Flags().StringVar(&flags.unityReleaseURL, "unityReleaseUrl", "", "Download URL stored as unityPackageUrl")
	cmd.Flags().StringVar(&flags.version, "version", "", "Override the manifest version")
	cmd.Flags().BoolVar(&flags.noVCC, "novcc", false, "Don't build the VCC zip")
	cmd.Flags().BoolVar(&flags.noUnity, "nounity", false, "Don't build the .unitypackage")
	cmd.Flags().BoolVar(&flags.action, "action", false, "Emit CI outputs for later workflow steps")
	cmd.Flags().StringArrayVar(&flags.customFields, "customField", nil, "Extra manifest field as key=value (repeatable)")
	cmd.Flags().StringVar(&flags.stagingDir, "staging-dir", "", "Override paths.staging_dir for this build")

	return cmd
}

func (f buildFlags) options(cfg *config.Config, args []string) (packager.Options, error) {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return packager.Options{}, fmt.Errorf("resolve package path: %w", err)
	}

	output := cfg.Paths.OutputDir
	if len(args) > 1 {
		output = args[1]
	}
	if strings.TrimSpace(output) == "" {
		return packager.Options{}, errors.New("output directory is required: pass it as the second argument or set paths.output_dir")
	}
	output, err = config.ExpandPath(output)
	if err != nil {
		return packager.Options{}, fmt.Errorf("resolve output directory: %w", err)
	}

	fields := make([]manifest.Field, 0, len(f.customFields))
	for _, raw := range f.customFields {
		field, err := manifest.ParseField(raw)
		if err != nil {
			return packager.Options{}, fmt.Errorf("--customField: %w", err)
		}
		fields = append(fields, field)
	}

	stagingRoot := cfg.Paths.StagingDir
	if dir := strings.TrimSpace(f.stagingDir); dir != "" {
		if stagingRoot, err = config.ExpandPath(dir); err != nil {
			return packager.Options{}, fmt.Errorf("resolve staging directory: %w", err)
		}
	}

	return packager.Options{
		WorkingDir:       source,
		OutputDir:        output,
		ReleaseURL:       strings.TrimSpace(f.releaseURL),
		UnityPackageURL:  strings.TrimSpace(f.unityReleaseURL),
		Version:          f.version,
		SkipZip:          f.noVCC,
		SkipUnityPackage: f.noUnity,
		IsRunningOnCI:    f.action,
		CustomFields:     fields,
		StagingRoot:      stagingRoot,
		CompressionLevel: cfg.Build.CompressionLevel,
		ExcludePatterns:  cfg.Build.ExcludePatterns,
	}, nil
}

// ciSink prefers the configured output file. Without one, outputs go to
// stdout, or to stderr when stdout carries JSON.
func ciSink(cmd *cobra.Command, cfg *config.Config, jsonMode bool) ciout.Sink {
	if path := strings.TrimSpace(cfg.Build.CIOutputFile); path != "" {
		return ciout.NewFileSink(path)
	}
	if jsonMode {
		return ciout.WriterSink{W: cmd.ErrOrStderr()}
	}
	return ciout.WriterSink{W: cmd.OutOrStdout()}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}
