// Command restore recovers the player save file from the newest compressed
// backup. Run it while the bot is stopped; it overwrites the primary data
// file with the restored records.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mallardworks/duckhunt/internal/config"
	filestore "github.com/mallardworks/duckhunt/internal/store/file"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "restore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataFile := flag.String("data", config.DefaultDataFile, "player save file to overwrite")
	backupDir := flag.String("backups", config.DefaultBackupDir, "backup directory to restore from")
	channel := flag.String("channel", "#duckhunt", "default channel for legacy records")
	flag.Parse()

	store := filestore.New(*dataFile, *backupDir, config.DefaultBackupKeep, *channel)

	ctx := context.Background()
	records, err := store.RestoreLatestBackup(ctx)
	if err != nil {
		return err
	}

	if err := store.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("failed to write restored records: %w", err)
	}

	fmt.Printf("restored %d player records to %s\n", len(records), *dataFile)
	return nil
}
