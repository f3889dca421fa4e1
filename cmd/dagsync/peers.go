package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/dagsync/peers"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Manage the local peer directory",
}

var peersAddCmd = &cobra.Command{
	Use:   "add <pubkey-hex> <address>",
	Short: "Add a peer to peers.json",
	Args:  cobra.ExactArgs(2),
	RunE:  peersAdd,
}

var peersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the peers in peers.json",
	RunE:  peersList,
}

func init() {
	peersCmd.AddCommand(peersAddCmd, peersListCmd)
	rootCmd.AddCommand(peersCmd)
}

func loadOrEmptyDirectory() (*peers.Directory, *peers.JSONDirectory, error) {
	store := peers.NewJSONDirectory(conf.DataDir)

	dir, err := store.Load()
	if err != nil {
		if os.IsNotExist(err) {
			return peers.NewDirectory(), store, nil
		}
		return nil, nil, err
	}
	if dir == nil {
		return peers.NewDirectory(), store, nil
	}
	return dir, store, nil
}

func peersAdd(cmd *cobra.Command, args []string) error {
	dir, store, err := loadOrEmptyDirectory()
	if err != nil {
		return fmt.Errorf("loading %s: %w", conf.PeersFile(), err)
	}

	dir.Add(peers.NewPeer(args[0], args[1]))

	if err := store.Save(dir.ToSlice()); err != nil {
		return fmt.Errorf("saving %s: %w", conf.PeersFile(), err)
	}

	fmt.Printf("Added peer %s at %s\n", args[0], args[1])
	return nil
}

func peersList(cmd *cobra.Command, args []string) error {
	dir, _, err := loadOrEmptyDirectory()
	if err != nil {
		return fmt.Errorf("loading %s: %w", conf.PeersFile(), err)
	}

	for _, p := range dir.ToSlice() {
		fmt.Printf("%d\t%s\t%s\n", p.ID, p.PubKeyHex, p.Addr)
	}
	return nil
}
