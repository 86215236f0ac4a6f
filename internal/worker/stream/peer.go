package stream

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/worldsync/internal/protocol/frame"
	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/worker"
)

// Authorizer decides whether a connecting worker is admitted. Returning an
// error rejects the connect with that message.
type Authorizer func(session.Connect) error

// Peer is the runtime side of a worker session. Tests and local tooling use it
// to drive a worker over a real stream.
type Peer struct {
	conn   net.Conn
	reader *bufio.Reader
	cfg    session.Config
	hello  session.Connect

	writeMu       sync.Mutex
	nextMessageID atomic.Uint64
}

// Accept performs the runtime side of the connect handshake on conn.
func Accept(conn net.Conn, cfg session.Config, authorize Authorizer) (*Peer, error) {
	cfg = cfg.WithDefaults()
	if tlsConn, ok := conn.(*tls.Conn); ok {
		_ = tlsConn.SetDeadline(time.Now().Add(cfg.HandshakeTimeout))
		if err := tlsConn.Handshake(); err != nil {
			return nil, err
		}
	}
	_ = conn.SetDeadline(time.Now().Add(cfg.HandshakeTimeout))
	reader := bufio.NewReader(conn)
	fr, err := frame.ReadFrame(reader, frame.DefaultLimits())
	if err != nil {
		return nil, err
	}
	hello, err := session.DecodeConnectFrame(fr)
	if err != nil {
		return nil, err
	}

	ack := session.ConnectAck{
		Status:      session.AckStatusAccepted,
		WorkerID:    hello.WorkerID,
		TimestampMS: uint64(time.Now().UnixMilli()),
	}
	var rejected error
	if authorize != nil {
		if rejected = authorize(hello); rejected != nil {
			ack.Status = session.AckStatusRejected
			ack.Code = 401
			ack.Message = rejected.Error()
		}
	}
	payload, err := session.EncodeConnectAckFrame(fr.Header.MessageID, ack)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectRejected, rejected)
	}
	_ = conn.SetDeadline(time.Time{})
	return &Peer{conn: conn, reader: reader, cfg: cfg, hello: hello}, nil
}

// Worker returns the connect message the worker sent.
func (p *Peer) Worker() session.Connect {
	return p.hello
}

// Send writes one op to the worker.
func (p *Peer) Send(op worker.Op) error {
	payload, err := session.EncodeOpFrame(p.nextMessageID.Add(1), op)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
	_, err = p.conn.Write(payload)
	return err
}

// Next blocks until the worker sends an op.
func (p *Peer) Next() (worker.Op, error) {
	fr, err := frame.ReadFrame(p.reader, frame.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return session.DecodeOp(fr)
}

func (p *Peer) Close() error {
	return p.conn.Close()
}
