package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"assetpack/internal/archive/unitypackage"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "inspect <file.unitypackage>",
		Short:       "List the assets inside a .unitypackage",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := readPackageFile(args[0])
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				assets := make([]map[string]any, 0, len(pkg.Assets))
				for _, a := range pkg.Assets {
					assets = append(assets, map[string]any{
						"guid":       a.GUID,
						"pathname":   a.Pathname,
						"folder":     !a.HasData,
						"size_bytes": a.Size(),
					})
				}
				return writeJSON(cmd, map[string]any{
					"path":            args[0],
					"assets":          assets,
					"icon_size_bytes": len(pkg.Icon),
				})
			}

			out := cmd.OutOrStdout()
			if len(pkg.Assets) == 0 {
				fmt.Fprintln(out, "Package contains no assets")
			} else {
				var total int64
				rows := make([][]string, 0, len(pkg.Assets))
				for _, a := range pkg.Assets {
					size := "-"
					if a.HasData {
						size = formatSize(a.Size())
						total += a.Size()
					}
					rows = append(rows, []string{a.GUID, a.Pathname, size})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"GUID", "Pathname", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "\nTotal: %d assets, %s\n", len(pkg.Assets), formatSize(total))
			}
			if pkg.Icon != nil {
				fmt.Fprintf(out, "Icon: %s\n", formatSize(int64(len(pkg.Icon))))
			} else {
				fmt.Fprintf(out, "Icon: %s\n", yesNo(false))
			}
			return nil
		},
	}
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var crlf bool

	cmd := &cobra.Command{
		Use:         "extract <file.unitypackage> <dest>",
		Short:       "Unpack a .unitypackage into a project folder",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open package: %w", err)
			}
			defer f.Close()

			written, err := unitypackage.Extract(f, args[1], unitypackage.ExtractOptions{NormalizeLineEndings: crlf})
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if written == nil {
					written = []string{}
				}
				return writeJSON(cmd, map[string]any{"destination": args[1], "files": written})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d files to %s\n", len(written), args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&crlf, "crlf", false, "Convert LF line endings to CRLF in text assets")
	return cmd
}

func readPackageFile(path string) (*unitypackage.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer f.Close()
	pkg, err := unitypackage.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return pkg, nil
}
