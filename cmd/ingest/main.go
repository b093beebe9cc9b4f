package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/machofv/geolocation-api/internal/config"
	"github.com/machofv/geolocation-api/internal/ipstack"
	"github.com/machofv/geolocation-api/internal/logger"
	"github.com/machofv/geolocation-api/internal/store"
)

// This tool fetches geolocation data from the ipstack API and inserts it
// into the SQLite datastore. IPs come from argv; failures are logged and
// skipped, never retried - this soft-skip behavior is acceptable only here,
// in an offline batch command, and must not leak into the service.
//
// Usage: go run cmd/ingest/main.go <ip> [<ip>...]
func main() {
	appConfig := config.Load()
	log := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	}).WithComponent("ingest")

	ips := os.Args[1:]
	if len(ips) == 0 {
		fmt.Println("Usage: ingest <ip> [<ip>...]")
		os.Exit(1)
	}

	client, err := ipstack.NewClient(appConfig.IPStackBaseURL, appConfig.IPStackAccessKey, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ipstack client")
	}

	dataStore, err := store.NewSQLiteStore(appConfig.DatastorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open datastore")
	}
	defer dataStore.Close()

	ctx := context.Background()
	inserted, skipped := 0, 0

	for _, ip := range ips {
		result, err := client.Lookup(ctx, ip)
		if err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("Lookup failed, skipping")
			skipped++
			continue
		}

		if err := appendBackup(appConfig.IngestBackupPath, result.Raw); err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("Failed to write backup line")
		}

		if err := dataStore.Create(ctx, result.Record); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				log.Info().Str("ip", result.Record.IPAddress).Msg("Record already exists, skipping")
			} else {
				log.Warn().Err(err).Str("ip", ip).Msg("Insert failed, skipping")
			}
			skipped++
			continue
		}

		log.Info().
			Str("ip", result.Record.IPAddress).
			Str("country", result.Record.Country).
			Str("city", result.Record.City).
			Msg("Record ingested")
		inserted++
	}

	fmt.Printf("✅ Ingestion finished: %d inserted, %d skipped\n", inserted, skipped)
}

// appendBackup appends one raw API response as a line to the backup file.
// An empty path disables the backup.
func appendBackup(path string, raw []byte) error {
	if path == "" {
		return nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(append(raw, '\n')); err != nil {
		return err
	}
	return nil
}
