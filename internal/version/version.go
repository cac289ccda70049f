package version

// Version is overridden at build time via -ldflags
var Version = "0.3.0"

// Full returns the full version string
func Full() string {
	return "skylark " + Version
}
