package version

// Version is set at build time using ldflags:
// -ldflags "-X github.com/kabuquant/kabuquant/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// GetVersion returns the current build version.
func GetVersion() string {
	return Version
}
