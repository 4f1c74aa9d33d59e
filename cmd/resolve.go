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
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gnames/gn"
	"github.com/gnames/gntaxid/internal/iooracle"
	"github.com/gnames/gntaxid/internal/ioprocess"
	"github.com/gnames/gntaxid/internal/iotaxdb"
	"github.com/gnames/gntaxid/pkg/config"
	"github.com/gnames/gntaxid/pkg/parserpool"
	"github.com/gnames/gntaxid/pkg/resolver"
	"github.com/spf13/cobra"
)

// getResolveCmd returns the resolve command.
func getResolveCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		withAll    bool
		jobsNum    int
	)

	resolveCmd := &cobra.Command{
		Use:   "resolve [input.csv]",
		Short: "Fill in scientific names and taxonomy IDs in a CSV file",
		Long: `Resolve species identity for every row of a CSV file.

The input needs a "Common Name" column, a "Latin name" column, a
"Taxonomy ID" column, or any mix of them; missing columns are added.
Each row that lacks data goes through two stages:

1. The common name is converted to a scientific name candidate, and
   the candidate is confirmed against the reference taxonomy.
2. Failing that, the row's own scientific name is validated by a
   round-trip conversion and then looked up.

Rows that already carry all three identity fields are skipped unless
--all is set. Malformed rows are reported and passed through
unchanged; they never stop the run. Results go to a new file, the
input file stays untouched.

Requires the local taxonomy database (see 'gntaxid fetch') and the
GNTAXID_ORACLE_API_KEY environment variable.

Examples:
  # resolve a file, writing species_update.csv next to it
  gntaxid resolve species.csv

  # choose the output location
  gntaxid resolve species.csv -o resolved.csv

  # reprocess rows that look complete already
  gntaxid resolve species.csv --all

  # limit concurrent oracle calls
  gntaxid resolve species.csv -j 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runResolve(cmd, args, inputPath, outputPath, withAll, jobsNum)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	resolveCmd.Flags().StringVarP(&inputPath, "input", "i", "",
		"CSV file to resolve (alternative to the positional argument)")
	resolveCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"output file path (default: <input>_update.csv)")
	resolveCmd.Flags().BoolVar(&withAll, "all", false,
		"reprocess rows that already carry all identity fields")
	resolveCmd.Flags().IntVarP(&jobsNum, "jobs", "j", 0,
		"number of concurrent resolution workers (default: CPU threads)")

	return resolveCmd
}

func runResolve(
	cmd *cobra.Command,
	args []string,
	inputPath, outputPath string,
	withAll bool,
	jobsNum int,
) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	// The positional argument wins over the --input flag.
	if len(args) > 0 {
		inputPath = args[0]
	}
	if inputPath == "" {
		gn.Warn(`<warn>No input file given</warn>
   Provide a CSV file as an argument or with <em>--input</em>`)
		err := fmt.Errorf("no input file")
		slog.Error("no input file", "error", err)
		return err
	}

	resolveOpts := []config.Option{config.OptResolveInputPath(inputPath)}
	if cmd.Flags().Changed("output") {
		resolveOpts = append(resolveOpts, config.OptResolveOutputPath(outputPath))
	}
	if cmd.Flags().Changed("all") {
		resolveOpts = append(resolveOpts, config.OptResolveWithAll(&withAll))
	}
	if cmd.Flags().Changed("jobs") {
		resolveOpts = append(resolveOpts, config.OptJobsNumber(jobsNum))
	}
	cfg.Update(resolveOpts)

	pool := parserpool.NewPool(cfg.JobsNumber)
	defer pool.Close()

	finder, err := iotaxdb.New(cfg, pool)
	if err != nil {
		return err
	}
	defer finder.Close()

	oracle, err := iooracle.New(cfg)
	if err != nil {
		return err
	}

	res := resolver.New(oracle, finder, pool)
	proc := ioprocess.New(cfg, res)

	slog.Info("Resolving species records",
		"input", cfg.Resolve.InputPath,
		"output", cfg.OutputPath(),
		"jobs", cfg.JobsNumber,
	)

	_, err = proc.Process(ctx)
	return err
}
