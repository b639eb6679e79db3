package utils

// Version is the dossier build version, overridable at link time via
// -ldflags "-X github.com/quarryhq/dossier/pkg/utils.Version=...".
var Version = "0.1.0-dev"

// Sha is the git commit the binary was built from, set at link time.
var Sha = "unknown"

// Buildtime is the build timestamp, set at link time.
var Buildtime = "unknown"
