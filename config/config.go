// Package config is this module's node configuration, generalized from
// babble's config.Config: same data-directory/address/log-level shape,
// same viper-driven loading convention, but re-scoped to what the
// sync-state machine and its Engine host actually need (bloom
// parameters, sync fan-out, transport choice) instead of the
// hashgraph-consensus knobs babble carries (SyncLimit, SuspendLimit,
// MaintenanceMode, fast-sync, signaling realm).
package config

import (
	"crypto/ecdsa"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	webrtc "github.com/pion/webrtc/v2"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/dagsync/common"
	"github.com/mosaicnetworks/dagsync/log"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing this
	// node's private key.
	DefaultKeyfile = "priv_key"

	// DefaultBadgerDir is the default name of the folder containing
	// the Badger database.
	DefaultBadgerDir = "badger_db"

	// DefaultPeersFile is the default name of the peers directory file.
	DefaultPeersFile = "peers.json"
)

// Default configuration values.
const (
	DefaultLogLevel            = "debug"
	DefaultBindAddr            = "127.0.0.1:1337"
	DefaultServiceAddr         = "127.0.0.1:8080"
	DefaultHeartbeatTimeout    = 500 * time.Millisecond
	DefaultTCPTimeout          = 1000 * time.Millisecond
	DefaultStore               = false
	DefaultSyncFanout          = 3
	DefaultBloomBitsPerEntry   = 10
	DefaultBloomProbes         = 7
	DefaultMaxChangesPerMsg    = 0 // 0 disables the change-count warning
	DefaultTransport           = "tcp"
	DefaultICEAddress          = "stun:stun.l.google.com:19302"
	DefaultICEUsername         = ""
	DefaultICEPassword         = ""
)

// Config holds every tunable of a dagsync node: where it keeps its
// data, how it talks to peers, and the sync-core parameters that are
// implementation knobs rather than wire-format constants
// (bits-per-entry, probes, and how many peers one heartbeat tick
// contacts).
type Config struct {
	// DataDir is the top-level directory holding this node's key,
	// peers file, and database.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogDir, if set, additionally writes logs to a file under this
	// directory via an lfshook sink.
	LogDir string `mapstructure:"log-dir"`

	// BindAddr is the local address:port this node listens for
	// incoming sync connections on, when Transport is "tcp".
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr overrides the address advertised to peers, for
	// nodes behind a NAT or reverse proxy.
	AdvertiseAddr string `mapstructure:"advertise"`

	// NoService disables the HTTP status API.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP status API.
	ServiceAddr string `mapstructure:"service-listen"`

	// HeartbeatTimeout is the interval between successive rounds of
	// GenerateSyncMessage/Send across all known peers.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat"`

	// TCPTimeout is the dial timeout for outgoing sync connections.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// Store activates the Badger-backed durable backend; otherwise an
	// in-memory backend is used.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing Badger database files,
	// when Store is enabled.
	DatabaseDir string `mapstructure:"db"`

	// SyncFanout is the number of peers contacted on each heartbeat
	// tick, selected via node.PeerSelector.
	SyncFanout int `mapstructure:"sync-fanout"`

	// BloomBitsPerEntry and BloomProbes hold Bloom filter parameters
	// (defaults 10 and 7). Nothing reads them: the filters
	// syncstate.Generate builds always use bloom.DefaultBitsPerEntry
	// and bloom.DefaultProbes, whatever is configured here.
	BloomBitsPerEntry uint32 `mapstructure:"bloom-bits-per-entry"`
	BloomProbes       uint32 `mapstructure:"bloom-probes"`

	// MaxChangesPerMessage is a soft limit on how many change blobs one
	// outgoing sync message carries. No value splits a message into
	// chunks; when it is positive, node.Engine logs a warning for each
	// generated message whose change count exceeds it. Zero (the
	// default) disables the check.
	MaxChangesPerMessage int `mapstructure:"max-changes-per-message"`

	// Transport selects "tcp" or "webrtc".
	Transport string `mapstructure:"transport"`

	// ICEAddress, ICEUsername, ICEPassword configure the STUN/TURN
	// server WebRTCTransport uses for NAT traversal. Ignored when
	// Transport is not "webrtc".
	ICEAddress  string `mapstructure:"ice-addr"`
	ICEUsername string `mapstructure:"ice-username"`
	ICEPassword string `mapstructure:"ice-password"`

	// Key is this node's private identity key.
	Key *ecdsa.PrivateKey

	logger *logrus.Logger
}

// NewDefaultConfig returns a Config with every default value set, even
// ones that cancel each other out (e.g. the TCP bind address when
// Transport is "webrtc") the way babble's NewDefaultConfig does.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:              DefaultDataDir(),
		LogLevel:             DefaultLogLevel,
		BindAddr:             DefaultBindAddr,
		ServiceAddr:          DefaultServiceAddr,
		HeartbeatTimeout:     DefaultHeartbeatTimeout,
		TCPTimeout:           DefaultTCPTimeout,
		Store:                DefaultStore,
		DatabaseDir:          DefaultDatabaseDir(),
		SyncFanout:           DefaultSyncFanout,
		BloomBitsPerEntry:    DefaultBloomBitsPerEntry,
		BloomProbes:          DefaultBloomProbes,
		MaxChangesPerMessage: DefaultMaxChangesPerMsg,
		Transport:            DefaultTransport,
		ICEAddress:           DefaultICEAddress,
		ICEUsername:          DefaultICEUsername,
		ICEPassword:          DefaultICEPassword,
	}
}

// NewTestConfig returns a Config with default values and a logger that
// routes through testing.T, per common.NewTestLogger.
func NewTestConfig(t testing.TB) *Config {
	c := NewDefaultConfig()
	c.logger = common.NewTestLogger(t)
	return c
}

// SetDataDir sets the top-level data directory and updates the
// database directory if it is still at its default, the same
// "don't clobber an explicit override" rule babble's SetDataDir uses.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerDir)
	}
}

// Keyfile returns the full path of the file containing the private
// key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// PeersFile returns the full path of the peers directory file.
func (c *Config) PeersFile() string {
	return filepath.Join(c.DataDir, DefaultPeersFile)
}

// ICEServers returns the single-server ICE configuration
// WebRTCTransport uses, based on this Config.
func (c *Config) ICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{
			URLs:           []string{c.ICEAddress},
			Username:       c.ICEUsername,
			Credential:     c.ICEPassword,
			CredentialType: webrtc.ICECredentialTypePassword,
		},
	}
}

// Logger returns a formatted logrus Entry prefixed "dagsync", building
// one via log.NewRoot on first use.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = log.NewRoot(c.LogLevel, c.LogDir)
	}
	return c.logger.WithField("prefix", "dagsync")
}

// DefaultDatabaseDir returns the default path for Badger database
// files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerDir)
}

// DefaultDataDir returns the default top-level data directory for the
// underlying OS, attempting to respect platform conventions.
func DefaultDataDir() string {
	home := HomeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, ".Dagsync")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Dagsync")
	default:
		return filepath.Join(home, ".dagsync")
	}
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
