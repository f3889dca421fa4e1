package config

import (
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	c := NewDefaultConfig()

	if c.SyncFanout != DefaultSyncFanout {
		t.Fatalf("SyncFanout = %d, want %d", c.SyncFanout, DefaultSyncFanout)
	}
	if c.Transport != DefaultTransport {
		t.Fatalf("Transport = %q, want %q", c.Transport, DefaultTransport)
	}
	if c.BloomBitsPerEntry != DefaultBloomBitsPerEntry || c.BloomProbes != DefaultBloomProbes {
		t.Fatalf("bloom params = (%d, %d), want (%d, %d)",
			c.BloomBitsPerEntry, c.BloomProbes, DefaultBloomBitsPerEntry, DefaultBloomProbes)
	}
	if c.DatabaseDir != filepath.Join(c.DataDir, DefaultBadgerDir) {
		t.Fatalf("DatabaseDir %q is not rooted under the default DataDir %q", c.DatabaseDir, c.DataDir)
	}
}

func TestSetDataDirUpdatesDatabaseDir(t *testing.T) {
	c := NewDefaultConfig()
	c.SetDataDir("/tmp/custom")

	want := filepath.Join("/tmp/custom", DefaultBadgerDir)
	if c.DatabaseDir != want {
		t.Fatalf("DatabaseDir = %q, want %q", c.DatabaseDir, want)
	}
}

func TestSetDataDirPreservesExplicitDatabaseDir(t *testing.T) {
	c := NewDefaultConfig()
	c.DatabaseDir = "/tmp/already-set"

	c.SetDataDir("/tmp/custom")

	if c.DatabaseDir != "/tmp/already-set" {
		t.Fatalf("SetDataDir clobbered an explicit DatabaseDir override, got %q", c.DatabaseDir)
	}
}

func TestKeyfileAndPeersFile(t *testing.T) {
	c := NewDefaultConfig()
	c.DataDir = "/tmp/custom"

	if c.Keyfile() != filepath.Join("/tmp/custom", DefaultKeyfile) {
		t.Fatalf("Keyfile() = %q", c.Keyfile())
	}
	if c.PeersFile() != filepath.Join("/tmp/custom", DefaultPeersFile) {
		t.Fatalf("PeersFile() = %q", c.PeersFile())
	}
}

func TestICEServers(t *testing.T) {
	c := NewDefaultConfig()
	c.ICEAddress = "stun:example.org:3478"
	c.ICEUsername = "alice"
	c.ICEPassword = "secret"

	servers := c.ICEServers()
	if len(servers) != 1 {
		t.Fatalf("ICEServers() returned %d entries, want 1", len(servers))
	}
	if servers[0].URLs[0] != c.ICEAddress {
		t.Fatalf("ICEServers()[0].URLs[0] = %q, want %q", servers[0].URLs[0], c.ICEAddress)
	}
	if servers[0].Username != c.ICEUsername {
		t.Fatalf("ICEServers()[0].Username = %q, want %q", servers[0].Username, c.ICEUsername)
	}
}

func TestLoggerPrefixed(t *testing.T) {
	c := NewTestConfig(t)
	entry := c.Logger()
	if entry.Data["prefix"] != "dagsync" {
		t.Fatalf("Logger() entry missing prefix field, got %v", entry.Data)
	}
}
