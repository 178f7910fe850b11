// Package icon downloads the optional package thumbnail named by the
// manifest's icon field and checks that it is a PNG.
package icon
