package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/civicreport/api/internal/config"
	"github.com/civicreport/api/internal/database"
	"github.com/civicreport/api/internal/export"
	"github.com/civicreport/api/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command line flags
	outDir := flag.String("out", ".", "Directory to write the backup file into")
	dryRun := flag.Bool("dry-run", false, "Show what would be backed up without writing anything")
	flag.Parse()

	_ = godotenv.Load()

	startTime := time.Now()
	log.Println("Starting backup job...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migration to ensure tables exist
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	s, err := store.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	ctx := context.Background()
	b, err := export.BuildBackup(ctx, s, startTime)
	if err != nil {
		log.Fatalf("Failed to read collections: %v", err)
	}

	counts := b.Counts()
	if *dryRun {
		log.Println("[DRY RUN] Would back up:")
		for collection, n := range counts {
			log.Printf("  %s: %d records", collection, n)
		}
		log.Println("[DRY RUN] No changes made")
		return
	}

	filename := export.BackupFilename(startTime)
	path := filepath.Join(*outDir, filename)
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	if err := b.WriteJSON(f); err != nil {
		f.Close()
		log.Fatalf("Failed to write backup: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to write backup: %v", err)
	}

	if _, err := export.Record(ctx, s, b, filename, nil); err != nil {
		log.Printf("Warning: backup written but not recorded: %v", err)
	}

	log.Printf("Backup complete. Wrote %s (reports=%d, users=%d, categories=%d, departments=%d) in %v",
		path, counts["reports"], counts["users"], counts["categories"], counts["departments"], time.Since(startTime))
}
