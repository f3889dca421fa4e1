package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/dagsync/backend"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the current heads and a canonical digest of the local change DAG",
	RunE:  inspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspect(cmd *cobra.Command, args []string) error {
	if !conf.Store {
		return fmt.Errorf("inspect requires --store (a Badger database to read)")
	}

	b, err := backend.NewBadgerBackend(conf.DatabaseDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", conf.DatabaseDir, err)
	}
	defer b.Close()

	ctx := context.Background()
	snap, err := backend.BuildSnapshot(ctx, b)
	if err != nil {
		return fmt.Errorf("building snapshot: %w", err)
	}

	fmt.Printf("changes: %d\n", len(snap.Changes))
	fmt.Println("heads:")
	for _, h := range snap.Heads {
		fmt.Printf("  %s\n", h)
	}

	digest, err := snap.Digest()
	if err != nil {
		return fmt.Errorf("computing digest: %w", err)
	}
	fmt.Printf("digest: %s\n", digest)

	return nil
}
