package version

// Version is the hyperctl version, overridden at build time with
// -ldflags "-X github.com/hashicorp-forge/hyperresource/internal/version.Version=...".
var Version = "0.1.0-dev"
