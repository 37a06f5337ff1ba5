// Command migrate prepares the execution journal database. Idempotent; safe
// to run on every deploy.
package main

import (
	"PaperTrade/internal/journal"
	"PaperTrade/internal/observability"
	"context"
	"log"
	"os"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	dsn := os.Getenv("PAPER_POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("FATAL: PAPER_POSTGRES_DSN is required")
	}

	logger := observability.NewLogger("migrate")
	w, err := journal.Open(dsn, logger)
	if err != nil {
		log.Fatalf("FATAL: open journal db: %v", err)
	}
	defer w.Close()

	if err := w.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("FATAL: apply journal schema: %v", err)
	}
	log.Println("INFO: journal schema applied")
}
