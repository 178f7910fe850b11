// Package zipenc writes the zip distribution of a staged package. Every
// entry must pair with a .meta sidecar; the staged manifest is the only
// file exempt from that rule.
package zipenc
