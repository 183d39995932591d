// import-cases loads a case spreadsheet into the processos table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"casequery-backend/config"
	"casequery-backend/dataset"
	"casequery-backend/models"
	"casequery-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-dry-run] <processos.xlsx|processos.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	dryRun := flag.Bool("dry-run", false, "Parse and report without writing")
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	ds, err := dataset.LoadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	log.Printf("✓ Parsed %d cases from %s", ds.Len(), path)

	records := make([]models.CaseRecord, 0, ds.Len())
	var undated int
	ds.Each(func(_ int, r models.CaseRecord) {
		if r.FilingDate == nil {
			undated++
		}
		records = append(records, r)
	})
	if undated > 0 {
		log.Printf("⚠️  %d cases have no filing date", undated)
	}
	if *dryRun {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	n, err := repository.NewCaseRepository(pool).ReplaceAll(ctx, records)
	if err != nil {
		log.Fatalf("Failed to import cases: %v", err)
	}
	log.Printf("✅ Imported %d cases", n)
}
