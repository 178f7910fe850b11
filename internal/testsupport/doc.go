// Package testsupport lays out package source trees and configs for tests.
package testsupport
