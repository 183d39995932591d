package main

import (
	"context"
	"flag"
	"log"

	"casequery-backend/config"
	"casequery-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	reset := flag.Bool("reset", false, "Drop existing tables first (development only)")
	flag.Parse()

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

	if *reset {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS processos, question_log, dataset_files CASCADE"); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✓ Dropped existing tables")
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("✓ Created processos table")
	log.Println("✓ Created question_log table")
	log.Println("✓ Created dataset_files table")

	var n int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM processos").Scan(&n); err != nil {
		log.Fatalf("Failed to verify schema: %v", err)
	}
	log.Printf("✓ Schema ready (%d cases stored)", n)
}
