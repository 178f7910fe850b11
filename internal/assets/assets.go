package assets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MetaSuffix is the extension of the sidecar file that carries an asset's GUID.
const MetaSuffix = ".meta"

// IconName is the sentinel file name written at the archive root as the
// package thumbnail.
const IconName = ".icon.png"

// GUIDLength is the number of characters that make up an asset GUID.
const GUIDLength = 32

const guidMarker = "guid: "

// ErrNoGUID reports a meta file without a complete guid field.
var ErrNoGUID = errors.New("meta file has no guid")

// Reason explains why an asset was left out of an archive.
type Reason string

const (
	ReasonMissingMeta Reason = "missing_meta"
	ReasonOrphanMeta  Reason = "orphan_meta"
	ReasonDuplicate   Reason = "duplicate"
	ReasonNotFound    Reason = "not_found"
	ReasonInvalidMeta Reason = "invalid_meta"
)

// Skipped records one asset that was not written.
type Skipped struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
}

// IsMeta reports whether path names a meta file.
func IsMeta(path string) bool {
	return strings.HasSuffix(path, MetaSuffix)
}

// AssetPath strips the meta suffix from path, if present.
func AssetPath(path string) string {
	return strings.TrimSuffix(path, MetaSuffix)
}

// MetaPath returns the meta file path for an asset.
func MetaPath(asset string) string {
	return asset + MetaSuffix
}

// Classify applies the meta pairing rule to one file: a meta file is kept
// only when its asset (file or directory) exists, any other file only when
// its meta exists. The returned reason is empty when the file is kept.
func Classify(path string) Reason {
	if IsMeta(path) {
		if exists(AssetPath(path)) {
			return ""
		}
		return ReasonOrphanMeta
	}
	if exists(MetaPath(path)) {
		return ""
	}
	return ReasonMissingMeta
}

// ExtractGUID returns the 32 characters following the first "guid: " marker.
func ExtractGUID(metaText string) (string, error) {
	idx := strings.Index(metaText, guidMarker)
	if idx < 0 {
		return "", ErrNoGUID
	}
	rest := metaText[idx+len(guidMarker):]
	if len(rest) < GUIDLength {
		return "", fmt.Errorf("%w: truncated guid", ErrNoGUID)
	}
	guid := rest[:GUIDLength]
	for i := 0; i < len(guid); i++ {
		c := guid[i]
		if c <= ' ' || c == '/' || c == '\\' || c >= 0x7f {
			return "", fmt.Errorf("%w: invalid character in %q", ErrNoGUID, guid)
		}
	}
	return guid, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
