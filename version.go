// Package toolplan provides the version information for toolplan.
package toolplan

// Version is the current version of toolplan.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
