// Command dagsync runs a peer-to-peer hash-DAG sync node, generalized
// from babble's cmd/babble entrypoint: a cobra root command with a
// persistent datadir flag, backed by viper for config-file and
// environment overrides.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
