// subset-taxdump extracts a small archive from the full NCBI taxdump.
//
// This tool creates reduced taxdump.tar.gz files that preserve:
//   - Every name row of the selected taxa (scientific names, synonyms,
//     common names), so class filtering stays testable
//   - Homonyms: a seed name shared by several taxa keeps all of them,
//     so ambiguous lookups stay testable
//   - The nodes.dmp rows of the selected taxa, so the archive keeps
//     the shape of a real taxdump
//
// Dropping the result into the cache directory as taxdump.tar.gz lets
// 'gntaxid fetch' build a database from it without the full download.
//
// Usage:
//
//	go run . <taxdump.tar.gz> <output.tar.gz> [name ...]
//
// Examples:
//
//	go run . ~/.cache/gntaxid/taxdump.tar.gz testdata/taxdump.tar.gz
//	go run . taxdump.tar.gz small.tar.gz "Canis lupus" "gray wolf"
package main

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// defaultSeeds selects well known species when no names are given on
// the command line.
var defaultSeeds = []string{
	"Canis lupus",
	"Felis catus",
	"Panthera leo",
	"Mus musculus",
	"Homo sapiens",
	"Gorilla gorilla",
	"Danio rerio",
	"Apis mellifera",
	"Quercus robur",
	"Morella rubra",
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <taxdump.tar.gz> <output.tar.gz> [name ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  taxdump.tar.gz  full NCBI taxdump archive\n")
		fmt.Fprintf(os.Stderr, "  output.tar.gz   path for the reduced archive\n")
		fmt.Fprintf(os.Stderr, "  name ...        names selecting the taxa to keep (any name class)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s ~/.cache/gntaxid/taxdump/taxdump.tar.gz testdata/taxdump.tar.gz\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s taxdump.tar.gz small.tar.gz \"Canis lupus\" \"gray wolf\"\n", os.Args[0])
		os.Exit(1)
	}

	sourcePath := os.Args[1]
	outputPath := os.Args[2]
	seeds := os.Args[3:]
	if len(seeds) == 0 {
		seeds = defaultSeeds
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting taxdump subset extraction",
		"source", sourcePath,
		"seeds", len(seeds),
		"output", outputPath,
	)

	if err := createSubset(logger, sourcePath, outputPath, seeds); err != nil {
		logger.Error("subset extraction failed", "error", err)
		os.Exit(1)
	}

	logger.Info("subset extraction complete", "output", outputPath)
}

// createSubset runs two passes over the source archive. The first
// collects the tax_ids whose names match the seeds, the second
// copies the matching names.dmp and nodes.dmp rows into the output.
func createSubset(logger *slog.Logger, sourcePath, outputPath string, seeds []string) error {
	taxIDs, err := collectTaxIDs(sourcePath, seeds)
	if err != nil {
		return err
	}
	if len(taxIDs) == 0 {
		return fmt.Errorf("no taxa matched the seed names")
	}
	logger.Info("taxa selected", "count", len(taxIDs))

	names, nodes, err := collectRows(sourcePath, taxIDs)
	if err != nil {
		return err
	}
	logger.Info("rows collected",
		"names", strings.Count(names, "\n"),
		"nodes", strings.Count(nodes, "\n"),
	)

	if err = writeArchive(outputPath, names, nodes); err != nil {
		return err
	}
	return nil
}

// collectTaxIDs scans names.dmp for rows whose name matches a seed.
// Matching is case-insensitive and covers every name class, so a
// common name or a synonym selects its taxon too. A name shared by
// several taxa selects all of them.
func collectTaxIDs(sourcePath string, seeds []string) (map[int]bool, error) {
	wanted := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		wanted[strings.ToLower(strings.TrimSpace(s))] = true
	}

	taxIDs := make(map[int]bool)
	err := scanEntry(sourcePath, "names.dmp", func(line string) {
		id, name, _, ok := splitNameRow(line)
		if !ok {
			return
		}
		if wanted[strings.ToLower(name)] {
			taxIDs[id] = true
		}
	})
	if err != nil {
		return nil, err
	}
	return taxIDs, nil
}

// collectRows gathers the verbatim names.dmp and nodes.dmp lines of
// the selected taxa.
func collectRows(sourcePath string, taxIDs map[int]bool) (string, string, error) {
	var names, nodes strings.Builder

	err := scanEntry(sourcePath, "names.dmp", func(line string) {
		id, _, _, ok := splitNameRow(line)
		if ok && taxIDs[id] {
			names.WriteString(line)
			names.WriteString("\n")
		}
	})
	if err != nil {
		return "", "", err
	}

	// nodes.dmp is optional for the database build, keep it when the
	// source has one
	err = scanEntry(sourcePath, "nodes.dmp", func(line string) {
		fields := strings.SplitN(line, "\t|\t", 2)
		if len(fields) < 2 {
			return
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err == nil && taxIDs[id] {
			nodes.WriteString(line)
			nodes.WriteString("\n")
		}
	})
	if err != nil {
		return "", "", err
	}

	return names.String(), nodes.String(), nil
}

// splitNameRow handles the taxdump field layout:
// tax_id<tab>|<tab>name<tab>|<tab>unique name<tab>|<tab>class<tab>|
func splitNameRow(line string) (int, string, string, bool) {
	trimmed := strings.TrimSuffix(line, "\t|")
	fields := strings.Split(trimmed, "\t|\t")
	if len(fields) < 4 {
		return 0, "", "", false
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, "", "", false
	}
	name := strings.TrimSpace(fields[1])
	if name == "" {
		return 0, "", "", false
	}
	return id, name, fields[3], true
}

// scanEntry streams one file out of the tar.gz archive line by line.
// A missing entry is not an error, the visitor is simply never called.
func scanEntry(archivePath, entry string, visit func(line string)) error {
	arc, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer arc.Close()

	gz, err := gzip.NewReader(arc)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		if filepath.Base(hdr.Name) != entry {
			continue
		}

		sc := bufio.NewScanner(tr)
		sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for sc.Scan() {
			visit(sc.Text())
		}
		return sc.Err()
	}
}

// writeArchive assembles the reduced tar.gz with the same entry
// names a real taxdump uses.
func writeArchive(outputPath, names, nodes string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	entries := []struct {
		name    string
		content string
	}{
		{"names.dmp", names},
		{"nodes.dmp", nodes},
	}
	for _, e := range entries {
		if e.content == "" {
			continue
		}
		hdr := &tar.Header{
			Name: e.name,
			Mode: 0644,
			Size: int64(len(e.content)),
		}
		if err = tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.name, err)
		}
		if _, err = tw.Write([]byte(e.content)); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.name, err)
		}
	}

	if err = tw.Close(); err != nil {
		return fmt.Errorf("failed to finish output: %w", err)
	}
	if err = gz.Close(); err != nil {
		return fmt.Errorf("failed to finish output: %w", err)
	}
	return nil
}
