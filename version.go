// Package praxis provides the version information for the praxis runtime.
package praxis

// Version is the current version of praxis.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
