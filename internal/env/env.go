package env

const AppName = "volmap"

// Set at build time through -ldflags "-X github.com/ostafen/volmap/internal/env.Version=...".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)
