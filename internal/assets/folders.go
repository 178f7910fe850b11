package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FolderMeta returns the meta text Unity writes for a plain folder.
func FolderMeta(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\nfolderAsset: yes\nDefaultImporter:\n  externalObjects: {}\n  userData: \n  assetBundleName: \n  assetBundleVariant: "
}

// WriteFolderMetas creates each folder under root together with a sibling
// folder meta carrying the mapped GUID. Keys are slash-separated paths
// relative to root and must stay inside it.
func WriteFolderMetas(root string, folders map[string]string) error {
	for _, rel := range sortedKeys(folders) {
		clean := filepath.Clean(filepath.FromSlash(rel))
		if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("folder meta %q: path escapes staging root", rel)
		}
		guid := folders[rel]
		if _, err := ExtractGUID(guidMarker + guid); err != nil {
			return fmt.Errorf("folder meta %q: %w", rel, err)
		}
		dir := filepath.Join(root, clean)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create folder %s: %w", rel, err)
		}
		if err := os.WriteFile(MetaPath(dir), []byte(FolderMeta(guid)), 0o644); err != nil {
			return fmt.Errorf("write folder meta %s: %w", rel, err)
		}
	}
	return nil
}
