// Package main provides the gntaxid CLI application.
// gntaxid fills in scientific names and taxonomy IDs for species lists.
package main

import (
	"github.com/gnames/gntaxid/cmd"
)

func main() {
	cmd.Execute()
}
