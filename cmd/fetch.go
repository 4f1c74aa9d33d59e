/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gnames/gn"
	"github.com/gnames/gntaxid/internal/iotaxdb"
	"github.com/spf13/cobra"
)

// getFetchCmd returns the fetch command.
func getFetchCmd() *cobra.Command {
	var force bool

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and build the local taxonomy database",
		Long: `Download the NCBI taxdump archive and build the local names
database that taxonomy ID lookups run against.

The download is tens of megabytes and the build takes a few minutes;
both happen once. Later runs reuse the database until --force asks
for a rebuild. Everything lands in the cache directory
(~/.cache/gntaxid by default, cache.dir in the config overrides it).

Examples:
  gntaxid fetch
  gntaxid fetch --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runFetch(force)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	fetchCmd.Flags().BoolVarP(&force, "force", "f", false,
		"rebuild the database even if it already exists")

	return fetchCmd
}

func runFetch(force bool) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	return iotaxdb.Fetch(ctx, cfg, force)
}
