package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"tillpoint/internal/platform/config"
	"tillpoint/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	dir := flag.String("dir", "migrations", "Migration directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	files, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read migration directory: %v", err)
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".sql" {
			continue
		}
		// A very simple migration runner that runs all SQL files in name
		// order. In production, applied migrations should be tracked in a
		// table.
		content, err := os.ReadFile(filepath.Join(*dir, file.Name()))
		if err != nil {
			log.Fatalf("Failed to read migration file %s: %v", file.Name(), err)
		}

		log.Printf("Applying migration: %s", file.Name())
		if _, err := db.Exec(string(content)); err != nil {
			log.Fatalf("Failed to execute migration %s: %v", file.Name(), err)
		}
	}

	fmt.Println("Migration completed successfully")
}
