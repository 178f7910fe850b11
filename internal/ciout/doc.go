// Package ciout publishes build results to a CI runner as key=value lines,
// either appended to the file named by $GITHUB_OUTPUT or written to a plain
// writer.
package ciout
