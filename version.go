package ouvidoria

// Version is the release version. Builds override it with
// -ldflags "-X github.com/aretw0/ouvidoria.Version=v1.2.3".
var Version = "0.1.0-dev"
