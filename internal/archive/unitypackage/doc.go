// Package unitypackage reads and writes the .unitypackage format: a gzip
// compressed tar stream in which every asset lives in a directory named
// by its GUID.
//
//	<guid>/asset       raw file bytes (absent for folders)
//	<guid>/asset.meta  the asset's .meta text, verbatim
//	<guid>/pathname    project-relative path with forward slashes
//	.icon.png          optional package thumbnail
//
// Packer deduplicates by canonical path, so callers may feed it both an
// asset and its meta file.
package unitypackage
