package iotaxdb

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsys"
	"github.com/gnames/gntaxid/pkg/config"
	"gopkg.in/yaml.v3"
)

// batchSize keeps multi-row inserts under the SQLite variable
// limit (3 parameters per row).
const batchSize = 10000

// Fetch downloads the NCBI taxdump archive and builds the local
// names database from it. An already built database is kept
// untouched unless force is set.
func Fetch(ctx context.Context, cfg *config.Config, force bool) error {
	dir := cfg.TaxCacheDir()
	if err := gnsys.MakeDir(dir); err != nil {
		return CacheDirError(dir, err)
	}

	archivePath := filepath.Join(dir, archiveFile)
	dbPath := filepath.Join(dir, dbFile)

	if force {
		_ = os.Remove(archivePath)
		_ = os.Remove(dbPath)
	}

	if _, err := os.Stat(dbPath); err == nil {
		gn.Info("Taxonomy database <em>%s</em> is already built", dbPath)
		gn.Message("Use <em>--force</em> to rebuild it from scratch")
		return nil
	}

	if _, err := os.Stat(archivePath); err != nil {
		if err = download(ctx, cfg.Cache.TaxdumpURL, archivePath); err != nil {
			return err
		}
	} else {
		gn.Info("Using previously downloaded <em>%s</em>", archivePath)
	}

	start := time.Now()
	gn.Info("Building taxonomy database <em>%s</em>", dbPath)
	count, err := build(ctx, archivePath, dbPath)
	if err != nil {
		return err
	}

	err = writeMeta(filepath.Join(dir, metaFile), cfg.Cache.TaxdumpURL, count)
	if err != nil {
		return err
	}

	slog.Info("Taxonomy database ready",
		"path", dbPath,
		"names", count,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	gn.Message(
		"<em>Loaded %s scientific names and synonyms in %s</em>",
		humanize.Comma(int64(count)),
		gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return nil
}

// download saves the taxdump archive, showing progress when the
// server reports the size.
func download(ctx context.Context, url, dest string) error {
	gn.Info("Downloading <em>%s</em>", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DownloadError(url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return DownloadError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BadStatusError(url, resp.StatusCode)
	}

	tmpDest := dest + ".download"
	out, err := os.Create(tmpDest)
	if err != nil {
		return DownloadError(url, err)
	}

	var src io.Reader = resp.Body
	var bar *pb.ProgressBar
	if resp.ContentLength > 0 {
		bar = pb.Full.Start64(resp.ContentLength)
		bar.Set("prefix", "Downloading: ")
		bar.Set(pb.Bytes, true)
		bar.Set(pb.CleanOnFinish, true)
		src = bar.NewProxyReader(resp.Body)
	}

	_, err = io.Copy(out, src)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		out.Close()
		_ = os.Remove(tmpDest)
		return DownloadError(url, err)
	}
	if err = out.Close(); err != nil {
		return DownloadError(url, err)
	}
	if err = os.Rename(tmpDest, dest); err != nil {
		return DownloadError(url, err)
	}
	return nil
}

// build extracts names.dmp from the taxdump archive and loads
// scientific names and synonyms into a fresh SQLite database.
// It returns the number of loaded names.
func build(ctx context.Context, archivePath, dbPath string) (int, error) {
	arc, err := os.Open(archivePath)
	if err != nil {
		return 0, ArchiveError(archivePath, err)
	}
	defer arc.Close()

	gz, err := gzip.NewReader(arc)
	if err != nil {
		return 0, ArchiveError(archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return 0, ArchiveError(
				archivePath,
				fmt.Errorf("no %s entry in archive", namesDmp),
			)
		}
		if err != nil {
			return 0, ArchiveError(archivePath, err)
		}
		if filepath.Base(hdr.Name) == namesDmp {
			return load(ctx, tr, hdr.Size, dbPath)
		}
	}
}

// load streams names.dmp rows into the database. The database is
// assembled under a temporary name and moved into place when
// complete, so an interrupted build cannot leave a half-loaded
// database behind.
func load(
	ctx context.Context,
	r io.Reader,
	size int64,
	dbPath string,
) (int, error) {
	tmpPath := dbPath + ".tmp"
	_ = os.Remove(tmpPath)

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return 0, BuildError(err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `
CREATE TABLE names (
  tax_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  class TEXT NOT NULL
)`)
	if err != nil {
		return 0, BuildError(err)
	}

	bar := pb.Full.Start64(size)
	bar.Set("prefix", "Loading names: ")
	bar.Set(pb.Bytes, true)
	bar.Set(pb.CleanOnFinish, true)

	sc := bufio.NewScanner(bar.NewProxyReader(r))
	sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var count int
	batch := make([]nameRow, 0, batchSize)
	for sc.Scan() {
		row, ok := parseRow(sc.Text())
		if !ok {
			continue
		}
		batch = append(batch, row)
		if len(batch) == batchSize {
			if err = insertBatch(ctx, db, batch); err != nil {
				bar.Finish()
				return 0, err
			}
			count += len(batch)
			batch = batch[:0]
		}
	}
	if err = sc.Err(); err != nil {
		bar.Finish()
		return 0, BuildError(err)
	}
	if len(batch) > 0 {
		if err = insertBatch(ctx, db, batch); err != nil {
			bar.Finish()
			return 0, err
		}
		count += len(batch)
	}
	bar.Finish()

	_, err = db.ExecContext(ctx,
		"CREATE INDEX names_name_idx ON names (name)",
	)
	if err != nil {
		return 0, BuildError(err)
	}

	if err = db.Close(); err != nil {
		return 0, BuildError(err)
	}
	if err = os.Rename(tmpPath, dbPath); err != nil {
		return 0, BuildError(err)
	}
	return count, nil
}

type nameRow struct {
	taxID int
	name  string
	class string
}

// parseRow handles the taxdump field layout:
// tax_id<tab>|<tab>name<tab>|<tab>unique name<tab>|<tab>class<tab>|
// Only "scientific name" and "synonym" classes are kept.
func parseRow(line string) (nameRow, bool) {
	var res nameRow
	line = strings.TrimSuffix(line, "\t|")
	fields := strings.Split(line, "\t|\t")
	if len(fields) < 4 {
		return res, false
	}

	class := fields[3]
	if class != "scientific name" && class != "synonym" {
		return res, false
	}

	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return res, false
	}

	name := strings.TrimSpace(fields[1])
	if name == "" {
		return res, false
	}

	res = nameRow{taxID: id, name: name, class: class}
	return res, true
}

func insertBatch(ctx context.Context, db *sql.DB, batch []nameRow) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*3)
	for _, row := range batch {
		valueStrings = append(valueStrings, "(?, ?, ?)")
		valueArgs = append(valueArgs, row.taxID, row.name, row.class)
	}

	query := fmt.Sprintf(
		"INSERT INTO names (tax_id, name, class) VALUES %s",
		strings.Join(valueStrings, ", "),
	)
	if _, err := db.ExecContext(ctx, query, valueArgs...); err != nil {
		return BuildError(err)
	}
	return nil
}

// meta describes a built taxonomy database.
type meta struct {
	URL       string    `yaml:"url"`
	FetchedAt time.Time `yaml:"fetched_at"`
	NamesNum  int       `yaml:"names_num"`
}

func writeMeta(path, url string, count int) error {
	m := meta{URL: url, FetchedAt: time.Now().UTC(), NamesNum: count}
	data, err := yaml.Marshal(m)
	if err != nil {
		return MetaError(path, err)
	}
	if err = os.WriteFile(path, data, 0644); err != nil {
		return MetaError(path, err)
	}
	return nil
}

func readMeta(path string) (meta, error) {
	var m meta
	data, err := os.ReadFile(path)
	if err != nil {
		return m, MetaError(path, err)
	}
	if err = yaml.Unmarshal(data, &m); err != nil {
		return m, MetaError(path, err)
	}
	return m, nil
}
