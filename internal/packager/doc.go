// Package packager runs a complete build.
//
// Build moves through init, validated, zip, unitypackage, finalized and done.
// A missing or invalid package.json aborts before anything is written; the
// zip and unitypackage phases each stage into a freshly recreated directory
// that is removed before the phase returns, whatever the outcome. Skipped
// assets never fail a build. They are logged and returned in the Result.
package packager
