package gntaxid

// Version is the current version of the gntaxid application.
// It is set during the build process using ldflags.
var Version = "v0.1.0"

// Build is the build timestamp of the gntaxid application.
// It is set during the build process using ldflags.
var Build = "n/a"
