// Package service exposes read-only JSON status endpoints over HTTP,
// generalized from babble's service package. It is operational
// visibility, not protocol surface: nothing in the sync core depends
// on it.
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/dagsync/backend"
	"github.com/mosaicnetworks/dagsync/node"
)

// Service serves /stats, /peers, and /heads over HTTP for a running
// Engine, generalized from babble's service.Service (which served
// /stats, /block/, /graph, /peers, /genesispeers against a
// hashgraph-backed node.Node).
type Service struct {
	sync.Mutex

	bindAddress string
	engine      *node.Engine
	logger      *logrus.Entry
}

// NewService returns a Service bound to bindAddress, reading from
// engine.
func NewService(bindAddress string, engine *node.Engine, logger *logrus.Entry) *Service {
	s := &Service{
		bindAddress: bindAddress,
		engine:      engine,
		logger:      logger,
	}
	s.registerHandlers()
	return s
}

// registerHandlers registers the API handlers with the
// DefaultServeMux, the way babble does, so an application embedding
// this module can share one HTTP listener with its own API.
func (s *Service) registerHandlers() {
	s.logger.Debug("registering dagsync status handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	http.HandleFunc("/heads", s.makeHandler(s.GetHeads))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call; skip it if the
// caller is already serving the DefaultServeMux on this address.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("serving dagsync status API")

	if err := http.ListenAndServe(s.bindAddress, nil); err != nil {
		s.logger.Error(err)
	}
}

// statsResponse is the JSON shape returned by GetStats.
type statsResponse struct {
	LocalAddr     string           `json:"local_addr"`
	AdvertiseAddr string           `json:"advertise_addr"`
	PubKeyHex     string           `json:"pub_key"`
	State         string           `json:"state"`
	Peers         int              `json:"peers"`
	Heads         []string         `json:"heads"`
	PeerStats     []node.PeerStats `json:"peer_stats"`
}

// GetStats reports the Engine's current run state and per-peer sync
// progress.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := context.Background()

	heads, err := s.engine.Backend().Heads(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	headStrs := make([]string, 0, len(heads))
	for _, h := range heads {
		headStrs = append(headStrs, h.String())
	}

	resp := statsResponse{
		LocalAddr:     s.engine.Transport().LocalAddr(),
		AdvertiseAddr: s.engine.Transport().AdvertiseAddr(),
		PubKeyHex:     s.engine.Identity().PubKeyHex,
		State:         s.engine.State().String(),
		Peers:         s.engine.Directory().Len(),
		Heads:         headStrs,
		PeerStats:     s.engine.PeerStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetPeers returns the Engine's known peers.
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.Directory().ToSlice())
}

// GetHeads returns the current heads from a snapshot of the Engine's
// backend (the rest of the snapshot is not returned), letting an
// operator check convergence across nodes.
func (s *Service) GetHeads(w http.ResponseWriter, r *http.Request) {
	snap, err := backend.BuildSnapshot(context.Background(), s.engine.Backend())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap.Heads)
}
