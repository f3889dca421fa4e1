package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mosaicnetworks/dagsync/config"
)

var conf = config.NewDefaultConfig()

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&conf.DataDir, "datadir", "d", conf.DataDir, "Base configuration directory")
	rootCmd.PersistentFlags().StringVarP(&conf.BindAddr, "listen", "l", conf.BindAddr, "Listen IP:Port for sync connections")
	rootCmd.PersistentFlags().StringVar(&conf.AdvertiseAddr, "advertise", conf.AdvertiseAddr, "Address advertised to peers, if different from --listen")
	rootCmd.PersistentFlags().StringVarP(&conf.ServiceAddr, "service-listen", "s", conf.ServiceAddr, "HTTP status API IP:Port")
	rootCmd.PersistentFlags().BoolVar(&conf.NoService, "no-service", conf.NoService, "Disable the HTTP status API")
	rootCmd.PersistentFlags().StringVar(&conf.LogLevel, "log", conf.LogLevel, "Log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&conf.LogDir, "log-dir", conf.LogDir, "Additionally write logs under this directory")
	rootCmd.PersistentFlags().BoolVar(&conf.Store, "store", conf.Store, "Use a Badger-backed database instead of an in-memory one")
	rootCmd.PersistentFlags().StringVar(&conf.DatabaseDir, "db", conf.DatabaseDir, "Badger database directory, when --store is set")
	rootCmd.PersistentFlags().DurationVar(&conf.HeartbeatTimeout, "heartbeat", conf.HeartbeatTimeout, "Time between sync rounds")
	rootCmd.PersistentFlags().DurationVarP(&conf.TCPTimeout, "timeout", "t", conf.TCPTimeout, "TCP dial timeout")
	rootCmd.PersistentFlags().IntVar(&conf.SyncFanout, "sync-fanout", conf.SyncFanout, "Number of peers contacted per sync round")
	rootCmd.PersistentFlags().StringVar(&conf.Transport, "transport", conf.Transport, "Transport: tcp or webrtc")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetConfigName("dagsync")
	viper.AddConfigPath(conf.DataDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "dagsync: reading config file:", err)
		}
	}

	if err := viper.Unmarshal(conf); err != nil {
		fmt.Fprintln(os.Stderr, "dagsync: unmarshalling config:", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dagsync",
	Short: "Peer-to-peer hash-DAG sync node",
	Long:  "dagsync reconciles content-addressed CRDT changes between peers over a Bloom-filter-assisted sync protocol.",
}
