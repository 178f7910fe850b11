// Package assets holds the rules shared by both archive encoders: which
// staged files are candidates, how a file pairs with its .meta sidecar, and
// how a GUID is read from meta text.
package assets
