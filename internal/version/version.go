package version

import "fmt"

const Product = "keepalive"

// Set at build time with -ldflags "-X keepalive/internal/version.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

func GetVersion() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", Product, Version, Commit, BuildDate)
}

func GetShortVersion() string {
	return Version
}
