package cmd

import (
	"fmt"

	gntaxid "github.com/gnames/gntaxid/pkg"
)

// versionString formats the version and build timestamp the way all
// gn projects present them.
func versionString() string {
	return fmt.Sprintf("version: %s\nbuild: %s", gntaxid.Version, gntaxid.Build)
}
