package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// maxFrameSize bounds a single length-prefixed frame, guarding against
// a corrupt or hostile length field causing an unbounded allocation.
// Per-message size budgeting is future work; this is a transport-level
// sanity limit, not that budgeting.
const maxFrameSize = 64 << 20 // 64MiB

// TCPTransport implements Transport with length-prefixed framing over
// net.Conn, directly generalized from babble's net/tcp_transport.go +
// net/stream_layer.go. Each Send opens a fresh connection, writes one
// frame, and closes it; babble's connection-pooling NetworkTransport
// RPC layer has no analogue here because this protocol has no
// request/response RPCs, only one-way encoded messages exchanged by
// the sync state machine.
type TCPTransport struct {
	stream     *TCPStreamLayer
	timeout    time.Duration
	consumeCh  chan Envelope
	shutdownCh chan struct{}
	logger     *logrus.Entry
}

// NewTCPTransport binds bindAddr and returns a Transport that frames
// messages over TCP.
func NewTCPTransport(bindAddr, advertiseAddr string, timeout time.Duration, logger *logrus.Entry) (*TCPTransport, error) {
	stream, err := newTCPStreamLayer(bindAddr, advertiseAddr)
	if err != nil {
		return nil, err
	}
	return &TCPTransport{
		stream:     stream,
		timeout:    timeout,
		consumeCh:  make(chan Envelope, 64),
		shutdownCh: make(chan struct{}),
		logger:     logger,
	}, nil
}

// Listen implements Transport.
func (t *TCPTransport) Listen() {
	go t.listen()
}

func (t *TCPTransport) listen() {
	for {
		conn, err := t.stream.Accept()
		if err != nil {
			select {
			case <-t.shutdownCh:
				return
			default:
			}
			t.logger.WithError(err).Error("TCPTransport accept")
			continue
		}
		go t.handleConn(conn)
	}
}

func (t *TCPTransport) handleConn(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	for {
		payload, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				t.logger.WithError(err).WithField("remote", remote).Debug("TCPTransport read frame")
			}
			return
		}
		select {
		case t.consumeCh <- Envelope{From: remote, Payload: payload}:
		case <-t.shutdownCh:
			return
		}
	}
}

// Consumer implements Transport.
func (t *TCPTransport) Consumer() <-chan Envelope {
	return t.consumeCh
}

// LocalAddr implements Transport.
func (t *TCPTransport) LocalAddr() string {
	return t.stream.Addr().String()
}

// AdvertiseAddr implements Transport.
func (t *TCPTransport) AdvertiseAddr() string {
	return t.stream.AdvertiseAddr()
}

// Send implements Transport: dial target, write one frame, disconnect.
func (t *TCPTransport) Send(target string, payload []byte) error {
	conn, err := t.stream.Dial(target, t.timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	return writeFrame(conn, payload)
}

// Close implements Transport.
func (t *TCPTransport) Close() error {
	select {
	case <-t.shutdownCh:
	default:
		close(t.shutdownCh)
	}
	return t.stream.Close()
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("transport: frame of %d bytes exceeds %d byte limit", n, maxFrameSize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
