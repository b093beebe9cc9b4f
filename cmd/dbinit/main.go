package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/machofv/geolocation-api/internal/config"
	"github.com/machofv/geolocation-api/internal/models"
	"github.com/machofv/geolocation-api/internal/store"
)

// This tool bootstraps the SQLite datastore: it creates the schema (opening
// the store does that) and inserts one seed record so the API has something
// to serve right away.
//
// Usage: go run cmd/dbinit/main.go [-reset]
func main() {
	reset := flag.Bool("reset", false, "drop and recreate the geolocation table first")
	flag.Parse()

	appConfig := config.Load()

	fmt.Printf("📁 Opening datastore at %s...\n", appConfig.DatastorePath)
	dataStore, err := store.NewSQLiteStore(appConfig.DatastorePath)
	if err != nil {
		log.Fatalf("Failed to open datastore: %v", err)
	}
	defer dataStore.Close()

	ctx := context.Background()

	if *reset {
		fmt.Println("🗑  Dropping existing table...")
		if err := dataStore.Reset(ctx); err != nil {
			log.Fatalf("Failed to reset datastore: %v", err)
		}
	}

	seed := models.Record{
		IPAddress: "192.000.000.000",
		Country:   "Poland",
		Region:    "Silesia",
		City:      "Katowice",
		ZipCode:   40514,
		Latitude:  34.04,
		Longitude: -118.02,
	}

	if err := dataStore.Create(ctx, seed); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fmt.Println("ℹ️  Seed record already present")
		} else {
			log.Fatalf("Failed to insert seed record: %v", err)
		}
	} else {
		fmt.Printf("✅ Seed record inserted (ip=%s, city=%s)\n", seed.IPAddress, seed.City)
	}

	count, err := dataStore.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count records: %v", err)
	}
	fmt.Printf("✅ Datastore ready, %d record(s) stored\n", count)
}
