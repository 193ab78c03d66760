package version

import "runtime/debug"

// version is set at build time via -ldflags.
var version = "dev"

// Get returns the build version string.
func Get() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return version
}
