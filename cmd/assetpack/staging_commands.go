package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"assetpack/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage build staging directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			var totalSize int64
			for _, dir := range dirs {
				totalSize += dir.Size
			}

			if ctx.JSONMode() {
				items := make([]map[string]any, 0, len(dirs))
				for _, dir := range dirs {
					items = append(items, map[string]any{
						"id":         dir.Name,
						"path":       dir.Path,
						"modified":   dir.ModTime,
						"size_bytes": dir.Size,
						"locked":     dir.Locked,
					})
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir":      stagingDir,
					"directories":      items,
					"total_size_bytes": totalSize,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)

			now := time.Now()
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{dir.Name, formatAge(dir.ModTime, now), formatSize(dir.Size), yesNo(dir.Locked)})
			}

			fmt.Fprint(out, renderTable(
				[]string{"Build", "Age", "Size", "In use"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatSize(totalSize))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover staging directories",
		Long: `Remove staging directories left behind by interrupted builds.

By default only directories older than build.stale_staging_hours are
removed. Use --max-age to pick another threshold, or --all to remove every
directory. Directories locked by a running build are always kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}

			age := time.Duration(cfg.Build.StaleStagingHours) * time.Hour
			if cmd.Flags().Changed("max-age") {
				age = maxAge
			}
			if cleanAll {
				age = 0
			}

			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, age, logger)
			if ctx.JSONMode() {
				return writeStagingCleanJSON(cmd, result)
			}
			return printStagingCleanResult(cmd, result)
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove directories older than this (default build.stale_staging_hours)")
	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all staging directories not in use")

	return cmd
}

func printStagingCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No staging directories to clean")
	} else {
		fmt.Fprintf(out, "Removed %d staging directories\n", len(result.Removed))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Kept %d directories in use by running builds\n", len(result.Skipped))
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
	}
	return nil
}

func writeStagingCleanJSON(cmd *cobra.Command, result staging.CleanStaleResult) error {
	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
	}
	return writeJSON(cmd, map[string]any{
		"removed": len(result.Removed),
		"in_use":  len(result.Skipped),
		"errors":  errs,
	})
}
