// Package version reports the build version of the noderadar binaries.
package version

import "runtime/debug"

const unset = "dev"

// Set via -ldflags "-X github.com/carverauto/noderadar/pkg/version.version=...".
//
//nolint:gochecknoglobals // ldflags injection target
var (
	version = unset
	buildID = unset

	readBuildInfo = debug.ReadBuildInfo
)

// GetVersion returns the injected version, falling back to the module version
// recorded by `go install`.
func GetVersion() string {
	if version != unset {
		return version
	}

	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return version
}

// GetBuildID returns the injected build ID, falling back to the short VCS
// revision stamped by the toolchain.
func GetBuildID() string {
	if buildID != unset {
		return buildID
	}

	info, ok := readBuildInfo()
	if !ok {
		return buildID
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}

			return s.Value
		}
	}

	return buildID
}

func GetFullVersion() string {
	return GetVersion() + " (build: " + GetBuildID() + ")"
}

// UserAgent identifies a component in outbound HTTP requests.
func UserAgent(component string) string {
	return "noderadar-" + component + "/" + GetVersion()
}
