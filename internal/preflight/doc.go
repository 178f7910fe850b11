// Package preflight provides readiness checks for the filesystem paths
// assetpack writes to.
//
// These checks run in two contexts:
//   - The packager calls CheckDirectoryAccess on the output directory before
//     staging anything, so a read-only target fails fast.
//   - The CLI "assetpack config validate" command runs RunAll and prints
//     the results.
package preflight
