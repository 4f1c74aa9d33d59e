package iotaxdb

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gnames/gntaxid/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNames returns names.dmp rows covering the classes and
// ambiguity cases the loader and the finder care about.
func testNames() []string {
	return []string{
		"9612\t|\tCanis lupus\t|\t\t|\tscientific name\t|",
		"9612\t|\tgray wolf\t|\t\t|\tgenbank common name\t|",
		"9689\t|\tPanthera leo\t|\t\t|\tscientific name\t|",
		"9689\t|\tLeo leo\t|\t\t|\tsynonym\t|",
		"9685\t|\tFelis catus\t|\t\t|\tscientific name\t|",
		"111\t|\tAmbigua duplex\t|\t\t|\tscientific name\t|",
		"222\t|\tAmbigua duplex\t|\t\t|\tscientific name\t|",
		"333\t|\tVaria mixta\t|\t\t|\tscientific name\t|",
		"444\t|\tVaria mixta\t|\t\t|\tsynonym\t|",
	}
}

// loadedNames is testNames minus the non-scientific classes.
const loadedNames = 8

// taxdumpArchive assembles a small taxdump.tar.gz with a decoy
// entry in front of names.dmp.
func taxdumpArchive(t *testing.T, lines []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	nodes := "1\t|\t1\t|\tno rank\t|\n"
	err := tw.WriteHeader(&tar.Header{
		Name: "nodes.dmp",
		Mode: 0644,
		Size: int64(len(nodes)),
	})
	require.NoError(t, err)
	_, err = tw.Write([]byte(nodes))
	require.NoError(t, err)

	content := strings.Join(lines, "\n") + "\n"
	err = tw.WriteHeader(&tar.Header{
		Name: namesDmp,
		Mode: 0644,
		Size: int64(len(content)),
	})
	require.NoError(t, err)
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	archive := taxdumpArchive(t, testNames())
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write(archive)
		}))
	defer ts.Close()

	cacheDir := t.TempDir()
	cfg := config.New(
		config.OptCacheDir(cacheDir),
		config.OptCacheTaxdumpURL(ts.URL+"/taxdump.tar.gz"),
	)
	ctx := context.Background()

	err := Fetch(ctx, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.FileExists(t, filepath.Join(cacheDir, dbFile))
	assert.FileExists(t, filepath.Join(cacheDir, archiveFile))

	m, err := readMeta(filepath.Join(cacheDir, metaFile))
	require.NoError(t, err)
	assert.Equal(t, loadedNames, m.NamesNum)
	assert.False(t, m.FetchedAt.IsZero())

	// an existing database makes the second run a no-op
	err = Fetch(ctx, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// force rebuilds from a fresh download
	err = Fetch(ctx, cfg, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
	defer ts.Close()

	cfg := config.New(
		config.OptCacheDir(t.TempDir()),
		config.OptCacheTaxdumpURL(ts.URL+"/taxdump.tar.gz"),
	)
	err := Fetch(context.Background(), cfg, false)
	require.Error(t, err)
}

func TestBuildCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, archiveFile)
	err := os.WriteFile(archivePath, []byte("not a gzip file"), 0644)
	require.NoError(t, err)

	_, err = build(context.Background(), archivePath, filepath.Join(dir, dbFile))
	require.Error(t, err)
}

func TestBuildMissingNamesDmp(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	content := "1\t|\t1\t|\tno rank\t|\n"
	err := tw.WriteHeader(&tar.Header{
		Name: "nodes.dmp",
		Mode: 0644,
		Size: int64(len(content)),
	})
	require.NoError(t, err)
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dir := t.TempDir()
	archivePath := filepath.Join(dir, archiveFile)
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0644))

	_, err = build(context.Background(), archivePath, filepath.Join(dir, dbFile))
	require.Error(t, err)
}

func TestParseRow(t *testing.T) {
	tests := []struct {
		msg, line string
		want      nameRow
		ok        bool
	}{
		{
			"scientific name",
			"9612\t|\tCanis lupus\t|\t\t|\tscientific name\t|",
			nameRow{taxID: 9612, name: "Canis lupus", class: "scientific name"},
			true,
		},
		{
			"synonym",
			"9689\t|\tLeo leo\t|\t\t|\tsynonym\t|",
			nameRow{taxID: 9689, name: "Leo leo", class: "synonym"},
			true,
		},
		{
			"common name class skipped",
			"9612\t|\tgray wolf\t|\t\t|\tgenbank common name\t|",
			nameRow{},
			false,
		},
		{
			"short line",
			"9612\t|\tCanis lupus\t|",
			nameRow{},
			false,
		},
		{
			"bad identifier",
			"xyz\t|\tCanis lupus\t|\t\t|\tscientific name\t|",
			nameRow{},
			false,
		},
		{
			"empty name",
			"9612\t|\t\t|\t\t|\tscientific name\t|",
			nameRow{},
			false,
		},
		{
			"garbage",
			"not a taxdump row",
			nameRow{},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			row, ok := parseRow(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, row)
			}
		})
	}
}

func TestMetaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), metaFile)
	err := writeMeta(path, "https://example.org/taxdump.tar.gz", 42)
	require.NoError(t, err)

	m, err := readMeta(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/taxdump.tar.gz", m.URL)
	assert.Equal(t, 42, m.NamesNum)
	assert.False(t, m.FetchedAt.IsZero())
}
