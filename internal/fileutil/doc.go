// Package fileutil holds the filesystem primitives the build pipeline stages
// trees with: streaming file copies, recursive tree copy with hidden-entry
// filtering, forced tree removal and SHA-256 content hashing.
package fileutil
