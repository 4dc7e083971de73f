package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"urbanease/billing"
	"urbanease/config"
	"urbanease/database"
)

// Operator command: runs every bill maintenance sweep once and prints a
// summary. Safe to re-run; a clean table reports all zeroes.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitConfig()

	if err := database.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	summary := billing.NewReconciler(database.DB).RunAll()

	fmt.Println("Reconciliation complete:")
	fmt.Printf("  orphaned bills removed:   %d\n", summary.OrphansRemoved)
	fmt.Printf("  duplicate bills removed:  %d\n", summary.DuplicatesRemoved)
	fmt.Printf("  bills backfilled:         %d\n", summary.FieldsBackfilled)
	if summary.IndexEnsured {
		fmt.Println("  unique bill index:        enforced")
	} else {
		fmt.Println("  unique bill index:        NOT enforced (duplicates may remain)")
	}
}
