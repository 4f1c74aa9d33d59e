// inspect_taxdb prints statistics about a built gntaxid names database.
// It is a helper for validating the result of 'gntaxid fetch': row counts
// per name class, how many names are ambiguous, and optionally the rows
// behind one name.
//
// Usage:
//
//	go run tools/inspect_taxdb.go --db ~/.cache/gntaxid/names.sqlite
//	go run tools/inspect_taxdb.go --db names.sqlite --name "Canis lupus"
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"
)

func main() {
	var dbPath, name string
	flag.StringVar(&dbPath, "db", "", "path to a built names.sqlite database")
	flag.StringVar(&name, "name", "", "show the rows stored for this name")
	flag.Parse()

	if dbPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("cannot open %s: %v", dbPath, err)
	}
	defer db.Close()

	if err = printStats(db); err != nil {
		log.Fatalf("cannot read %s: %v", dbPath, err)
	}

	if name != "" {
		if err = printName(db, name); err != nil {
			log.Fatalf("lookup failed: %v", err)
		}
	}
}

func printStats(db *sql.DB) error {
	var total int
	err := db.QueryRow("SELECT count(*) FROM names").Scan(&total)
	if err != nil {
		return err
	}
	fmt.Printf("rows: %d\n", total)

	rows, err := db.Query(
		"SELECT class, count(*) FROM names GROUP BY class ORDER BY class",
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var class string
		var count int
		if err = rows.Scan(&class, &count); err != nil {
			return err
		}
		fmt.Printf("  %-16s %d\n", class, count)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	// names that map to more than one taxon are rejected by lookups,
	// so their share is worth knowing
	var ambiguous int
	err = db.QueryRow(`
		SELECT count(*) FROM (
			SELECT name FROM names
			GROUP BY name
			HAVING count(DISTINCT tax_id) > 1
		)`).Scan(&ambiguous)
	if err != nil {
		return err
	}
	fmt.Printf("ambiguous names: %d\n", ambiguous)
	return nil
}

func printName(db *sql.DB, name string) error {
	rows, err := db.Query(
		"SELECT tax_id, name, class FROM names WHERE name = ? COLLATE NOCASE",
		name,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Printf("\nrows for %q:\n", name)
	found := false
	for rows.Next() {
		var taxID int
		var stored, class string
		if err = rows.Scan(&taxID, &stored, &class); err != nil {
			return err
		}
		found = true
		fmt.Printf("  %d\t%s\t%s\n", taxID, stored, class)
	}
	if err = rows.Err(); err != nil {
		return err
	}
	if !found {
		fmt.Println("  (none)")
	}
	return nil
}
