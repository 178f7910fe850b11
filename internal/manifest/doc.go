// Package manifest models package.json as an ordered JSON document.
//
// Known keys (name, version, icon, unityPackageDestinationFolder, ...) are
// read through typed accessors while every other key is carried as raw JSON
// so registry-specific fields pass through to the published manifest
// unchanged. Validate reports all missing fields at once; Finalize writes
// server-package.json with the zip checksum folded in.
package manifest
