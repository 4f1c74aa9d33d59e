// Package ioprocess runs the resolution engine over whole CSV files.
// It reads a species table, resolves its rows concurrently, and writes
// the updated table back next to the input.
package ioprocess

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gntaxid/internal/iocsv"
	gntaxid "github.com/gnames/gntaxid/pkg"
	"github.com/gnames/gntaxid/pkg/config"
	"github.com/gnames/gntaxid/pkg/record"
	"golang.org/x/sync/errgroup"
)

// batchProcessor implements the Processor interface.
type batchProcessor struct {
	cfg      *config.Config
	resolver gntaxid.Resolver
}

// New creates a Processor that runs the given resolver over the files
// named by the configuration.
func New(cfg *config.Config, res gntaxid.Resolver) gntaxid.Processor {
	return &batchProcessor{cfg: cfg, resolver: res}
}

// rowJob carries one table row into the worker pool. The index points
// back at the row's slot in the table.
type rowJob struct {
	idx int
	rec record.SpeciesRecord
}

type rowResult struct {
	idx int
	rec record.SpeciesRecord
	out record.Outcome
}

// Process resolves the records of the configured input file. The output
// file appears only when the whole run succeeds, so an interrupted run
// never leaves a half-written result behind.
func (p *batchProcessor) Process(ctx context.Context) (gntaxid.Stats, error) {
	var stats gntaxid.Stats
	start := time.Now()

	tbl, err := iocsv.Read(p.cfg.Resolve.InputPath)
	if err != nil {
		return stats, err
	}
	stats.AllRows = tbl.Len()
	stats.Malformed = tbl.Malformed

	jobs := p.collectJobs(tbl, &stats)

	if err = p.resolveRows(ctx, tbl, jobs, &stats); err != nil {
		if errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return stats, CanceledError(err)
		}
		return stats, err
	}

	output := p.cfg.OutputPath()
	if err = iocsv.Write(output, tbl); err != nil {
		return stats, err
	}

	report(output, stats, start)
	return stats, nil
}

// collectJobs picks the rows that need resolution. Complete rows are
// skipped unless the run asks for all of them.
func (p *batchProcessor) collectJobs(
	tbl *iocsv.Table,
	stats *gntaxid.Stats,
) []rowJob {
	var res []rowJob
	skip := p.cfg.SkipComplete()
	for i := 0; i < tbl.Len(); i++ {
		rec := tbl.Record(i)
		if skip && record.Complete(rec) {
			stats.Skipped++
			continue
		}
		res = append(res, rowJob{idx: i, rec: rec})
	}
	return res
}

// resolveRows fans jobs out to a worker pool and folds the results back
// into the table. The collector goroutine is the only writer of the
// table and the stats, so no locking is needed.
func (p *batchProcessor) resolveRows(
	ctx context.Context,
	tbl *iocsv.Table,
	jobs []rowJob,
	stats *gntaxid.Stats,
) error {
	if len(jobs) == 0 {
		return nil
	}

	bar := pb.Full.Start(len(jobs))
	bar.Set("prefix", "Resolving records: ")
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	chIn := make(chan rowJob)
	chOut := make(chan rowResult)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chIn)
		for _, j := range jobs {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			case chIn <- j:
			}
		}
		return nil
	})

	workerCount := p.cfg.JobsNumber
	if workerCount <= 0 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for range workerCount {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return p.resolveWorker(gCtx, chIn, chOut)
		})
	}

	g.Go(func() error {
		for r := range chOut {
			tbl.SetRecord(r.idx, r.rec)
			countOutcome(stats, r)
			bar.Increment()
		}
		return nil
	})

	// close chOut after all workers finish, so the collector knows no
	// more results are coming
	go func() {
		wg.Wait()
		close(chOut)
	}()

	return g.Wait()
}

// resolveWorker resolves rows from chIn one at a time. An error here is
// an infrastructure failure and stops the whole run.
func (p *batchProcessor) resolveWorker(
	ctx context.Context,
	chIn <-chan rowJob,
	chOut chan<- rowResult,
) error {
	for j := range chIn {
		select {
		case <-ctx.Done():
			// drain the channel on cancellation
			for range chIn {
			}
			return ctx.Err()
		default:
		}

		out, err := p.resolver.Resolve(ctx, j.rec)
		if err != nil {
			return err
		}

		res := rowResult{
			idx: j.idx,
			rec: record.Merge(j.rec, out),
			out: out,
		}

		select {
		case <-ctx.Done():
			for range chIn {
			}
			return ctx.Err()
		case chOut <- res:
		}
	}
	return nil
}

func countOutcome(stats *gntaxid.Stats, r rowResult) {
	switch r.out.Status {
	case record.Resolved:
		stats.Resolved++
	case record.PartiallyResolved:
		stats.Partial++
		slog.Warn("No taxonomy ID for a validated name",
			"row", r.rec.Row,
			"latinName", r.rec.LatinName,
		)
	default:
		stats.Unresolved++
		slog.Warn("Could not resolve a record",
			"row", r.rec.Row,
			"commonName", r.rec.CommonName,
			"latinName", r.rec.LatinName,
		)
	}
}

// report prints the run summary for the user.
func report(output string, stats gntaxid.Stats, start time.Time) {
	gn.Info("Processed <em>%s</em> rows in %s",
		humanize.Comma(int64(stats.AllRows)),
		gnfmt.TimeString(time.Since(start).Seconds()),
	)
	gn.Message(
		"Resolved: %s, partial: %s, unresolved: %s, skipped: %s",
		humanize.Comma(int64(stats.Resolved)),
		humanize.Comma(int64(stats.Partial)),
		humanize.Comma(int64(stats.Unresolved)),
		humanize.Comma(int64(stats.Skipped)),
	)
	if stats.Malformed > 0 {
		gn.Warn("Ignored <em>%d</em> malformed rows", stats.Malformed)
	}
	gn.Message("Results are written to <em>%s</em>", output)
}
