package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/dagsync/backend"
	"github.com/mosaicnetworks/dagsync/crypto/keys"
	"github.com/mosaicnetworks/dagsync/node"
	"github.com/mosaicnetworks/dagsync/peers"
	"github.com/mosaicnetworks/dagsync/service"
	"github.com/mosaicnetworks/dagsync/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a sync node",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	logger := conf.Logger()

	identity, err := loadOrCreateIdentity()
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}

	directory, _, err := loadOrEmptyDirectory()
	if err != nil {
		return fmt.Errorf("loading %s: %w", conf.PeersFile(), err)
	}

	b, err := openBackend()
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}

	trans, err := openTransport(logger)
	if err != nil {
		return fmt.Errorf("opening transport: %w", err)
	}

	engine := node.NewEngine(
		node.EngineConfig{
			HeartbeatTimeout:     conf.HeartbeatTimeout,
			DataDir:              conf.DataDir,
			SyncFanout:           conf.SyncFanout,
			MaxChangesPerMessage: conf.MaxChangesPerMessage,
		},
		b,
		identity,
		directory,
		trans.AdvertiseAddr(),
		trans,
		logger,
	)

	for _, p := range directory.ToSlice() {
		if err := engine.LoadPeerState(p.Addr); err != nil {
			logger.WithError(err).WithField("peer", p.Addr).Warn("loading persisted peer state")
		}
	}

	logger.WithFields(map[string]interface{}{
		"datadir":   conf.DataDir,
		"listen":    trans.LocalAddr(),
		"advertise": trans.AdvertiseAddr(),
		"transport": conf.Transport,
		"peers":     directory.Len(),
	}).Info("starting dagsync node")

	engine.Run()
	if closer, ok := b.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	defer engine.Shutdown()

	if !conf.NoService {
		svc := service.NewService(conf.ServiceAddr, engine, logger)
		go svc.Serve()
	}

	waitForSignal()
	logger.Info("shutting down")

	return nil
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

func loadOrCreateIdentity() (*peers.Identity, error) {
	keyfile := conf.Keyfile()
	reader := keys.NewSimpleKeyfile(keyfile)

	priv, err := reader.ReadKey()
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		priv, err = keys.GenerateECDSAKey()
		if err != nil {
			return nil, err
		}
		if err := reader.WriteKey(priv); err != nil {
			return nil, err
		}
	}

	conf.Key = priv
	return peers.IdentityFromPrivateKey(priv), nil
}

func openBackend() (backend.Backend, error) {
	if !conf.Store {
		return backend.NewMemoryBackend(), nil
	}
	return backend.NewBadgerBackend(conf.DatabaseDir)
}

func openTransport(logger *logrus.Entry) (transport.Transport, error) {
	switch conf.Transport {
	case "tcp", "":
		return transport.NewTCPTransport(conf.BindAddr, conf.AdvertiseAddr, conf.TCPTimeout, logger)
	case "webrtc":
		return nil, fmt.Errorf("transport webrtc must be driven by an embedding application (offer/answer exchange is out-of-band); run does not support it directly")
	default:
		return nil, fmt.Errorf("unknown transport %q", conf.Transport)
	}
}
