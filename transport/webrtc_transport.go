package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/pion/datachannel"
	webrtc "github.com/pion/webrtc/v2"
	"github.com/sirupsen/logrus"
)

// WebRTCTransport implements Transport over WebRTC data channels, one
// channel per peer, generalized from babble's net/webrtc_transport.go
// + net/webrtc_stream_layer.go. Babble's version negotiates SDP
// offers/answers through a WAMP signaling bus (net/signal); this
// module drops that bus (connection establishment is out of scope)
// and instead exposes CreateOffer/AcceptOffer/CompleteOffer so the
// caller supplies already-negotiated SessionDescriptions through
// whatever out-of-band channel it has, exactly the shape the rest of
// this module assumes of a transport.
//
// A WebRTC data channel already preserves message boundaries, so no
// additional framing is needed: each detached channel's Read returns
// exactly one message, mirroring one OnMessage callback per SyncMessage.
type WebRTCTransport struct {
	mu              sync.Mutex
	advertiseID     string
	iceServers      []webrtc.ICEServer
	peerConnections map[string]*webrtc.PeerConnection
	dataChannels    map[string]datachannel.ReadWriteCloser
	consumeCh       chan Envelope
	logger          *logrus.Entry
}

// NewWebRTCTransport returns a WebRTCTransport that advertises itself
// as advertiseID (an opaque identifier peers use to address offers at
// this node) and uses iceServers for NAT traversal.
func NewWebRTCTransport(advertiseID string, iceServers []webrtc.ICEServer, logger *logrus.Entry) *WebRTCTransport {
	return &WebRTCTransport{
		advertiseID:     advertiseID,
		iceServers:      iceServers,
		peerConnections: make(map[string]*webrtc.PeerConnection),
		dataChannels:    make(map[string]datachannel.ReadWriteCloser),
		consumeCh:       make(chan Envelope, 64),
		logger:          logger,
	}
}

// Listen implements Transport. WebRTC connections are established by
// the caller driving CreateOffer/AcceptOffer/CompleteOffer, so there is
// no background accept loop to start here.
func (w *WebRTCTransport) Listen() {}

// Consumer implements Transport.
func (w *WebRTCTransport) Consumer() <-chan Envelope {
	return w.consumeCh
}

// LocalAddr implements Transport.
func (w *WebRTCTransport) LocalAddr() string {
	return w.advertiseID
}

// AdvertiseAddr implements Transport.
func (w *WebRTCTransport) AdvertiseAddr() string {
	return w.advertiseID
}

func (w *WebRTCTransport) newPeerConnection() (*webrtc.PeerConnection, error) {
	s := webrtc.SettingEngine{}
	s.DetachDataChannels()
	api := webrtc.NewAPI(webrtc.WithSettingEngine(s))

	config := webrtc.Configuration{ICEServers: w.iceServers}
	return api.NewPeerConnection(config)
}

// CreateOffer starts the initiator side of a connection to target: it
// creates a PeerConnection and DataChannel and returns the local SDP
// offer for the caller to ship to target out-of-band. Call
// CompleteOffer with the peer's answer once it arrives.
func (w *WebRTCTransport) CreateOffer(target string) (*webrtc.SessionDescription, error) {
	pc, err := w.newPeerConnection()
	if err != nil {
		return nil, err
	}
	w.watchICEState(pc, target)

	dc, err := pc.CreateDataChannel("dagsync", nil)
	if err != nil {
		pc.Close()
		return nil, err
	}
	w.bindDataChannel(dc, target)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return nil, err
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return nil, err
	}

	w.mu.Lock()
	w.peerConnections[target] = pc
	w.mu.Unlock()

	return &offer, nil
}

// AcceptOffer handles the responder side: given a remote offer from
// target, it creates the matching PeerConnection and returns the local
// SDP answer for the caller to ship back.
func (w *WebRTCTransport) AcceptOffer(target string, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	pc, err := w.newPeerConnection()
	if err != nil {
		return nil, err
	}
	w.watchICEState(pc, target)

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		w.bindDataChannel(dc, target)
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, err
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, err
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, err
	}

	w.mu.Lock()
	w.peerConnections[target] = pc
	w.mu.Unlock()

	return &answer, nil
}

// CompleteOffer finishes the initiator side by applying the peer's
// answer to the PeerConnection CreateOffer started for target.
func (w *WebRTCTransport) CompleteOffer(target string, answer webrtc.SessionDescription) error {
	w.mu.Lock()
	pc, ok := w.peerConnections[target]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: no pending offer to %s", target)
	}
	return pc.SetRemoteDescription(answer)
}

func (w *WebRTCTransport) watchICEState(pc *webrtc.PeerConnection, target string) {
	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		w.logger.WithField("peer", target).WithField("state", s.String()).Debug("WebRTCTransport ICE state change")
	})
}

func (w *WebRTCTransport) bindDataChannel(dc *webrtc.DataChannel, target string) {
	dc.OnOpen(func() {
		raw, err := dc.Detach()
		if err != nil {
			w.logger.WithError(err).WithField("peer", target).Error("WebRTCTransport detach data channel")
			return
		}

		w.mu.Lock()
		w.dataChannels[target] = raw
		w.mu.Unlock()

		go w.readLoop(target, raw)
	})
}

// readLoop pumps detached-channel messages into the consumer channel.
// Each Read call on a detached pion data channel returns exactly one
// underlying SCTP message, so no length-prefixing is needed here.
func (w *WebRTCTransport) readLoop(target string, raw datachannel.ReadWriteCloser) {
	buf := make([]byte, 1<<20)
	for {
		n, err := raw.Read(buf)
		if err != nil {
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		w.consumeCh <- Envelope{From: target, Payload: payload}
	}
}

// Send implements Transport.
func (w *WebRTCTransport) Send(target string, payload []byte) error {
	w.mu.Lock()
	dc, ok := w.dataChannels[target]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: no open data channel to %s", target)
	}
	_, err := dc.Write(payload)
	return err
}

// Close implements Transport.
func (w *WebRTCTransport) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, dc := range w.dataChannels {
		dc.Close()
	}
	for _, pc := range w.peerConnections {
		pc.Close()
	}
	return nil
}

// DefaultICETimeout bounds how long CompleteOffer's caller should wait
// for a data channel to open before giving up.
const DefaultICETimeout = 10 * time.Second
