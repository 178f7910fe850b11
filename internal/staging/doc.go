// Package staging owns the per-build scratch directories that the packager
// copies sources into before encoding.
//
// Each build acquires its own directory under the configured staging root,
// named by a build UUID and guarded by a sibling flock file. CleanStale and
// ListDirectories back the `assetpack staging` commands and never touch a
// directory whose lock is still held.
package staging
