package bank

import "golang.org/x/mod/semver"

// Version is the release of this module, in semver form.
const Version = "v0.1.0"

// Info describes the build.
type Info struct {
	// Version is the full version string.
	Version string

	// Major is the major version, e.g. "v0".
	Major string

	// Release is the major.minor prefix, e.g. "v0.1".
	Release string

	// Prerelease is the prerelease suffix, empty for releases.
	Prerelease string

	// Checker names the happens-before algorithm.
	Checker string
}

// GetInfo returns information about this build.
//
// Example:
//
//	info := bank.GetInfo()
//	fmt.Printf("bankrace %s (%s)\n", info.Version, info.Checker)
func GetInfo() Info {
	return Info{
		Version:    semver.Canonical(Version),
		Major:      semver.Major(Version),
		Release:    semver.MajorMinor(Version),
		Prerelease: semver.Prerelease(Version),
		Checker:    "FastTrack (PLDI 2009)",
	}
}

// Compatible reports whether a caller built against version v can use this
// release: same major version, and v not newer than Version.
func Compatible(v string) bool {
	if !semver.IsValid(v) {
		return false
	}
	return semver.Major(v) == semver.Major(Version) && semver.Compare(v, Version) <= 0
}
