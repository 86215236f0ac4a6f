package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/worldsync/internal/protocol/frame"
	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/rs/zerolog"
)

// Conn is a live worker session. It implements worker.Connection.
type Conn struct {
	conn   net.Conn
	cfg    session.Config
	log    zerolog.Logger
	limits frame.Limits

	ops     chan worker.Op
	closing chan struct{}
	done    chan struct{}

	errMu sync.Mutex
	err   error

	writeMu       sync.Mutex
	nextMessageID atomic.Uint64
	nextRequestID atomic.Uint64

	closeOnce sync.Once
}

var _ worker.Connection = (*Conn)(nil)

func newConn(conn net.Conn, r io.Reader, cfg session.Config, log zerolog.Logger) *Conn {
	c := &Conn{
		conn:    conn,
		cfg:     cfg,
		log:     log,
		limits:  frame.DefaultLimits(),
		ops:     make(chan worker.Op, cfg.OpBuffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	c.nextMessageID.Store(uint64(time.Now().UnixNano()))
	go c.readLoop(r)
	return c
}

func (c *Conn) readLoop(r io.Reader) {
	defer close(c.done)
	for {
		fr, err := frame.ReadFrame(r, c.limits)
		if err != nil {
			c.terminate(err)
			return
		}
		op, err := session.DecodeOp(fr)
		if err != nil {
			c.log.Warn().Err(err).
				Uint64("message_id", fr.Header.MessageID).
				Uint32("message_type", fr.Header.MessageType).
				Msg("stream.Conn dropped undecodable frame")
			continue
		}
		select {
		case c.ops <- op:
		case <-c.closing:
			c.terminate(net.ErrClosed)
			return
		}
	}
}

// terminate records the read error and queues a Disconnect op so the frame
// loop observes the session end in order.
func (c *Conn) terminate(err error) {
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()

	reason := "connection closed"
	if !errors.Is(err, net.ErrClosed) && !errors.Is(err, frame.ErrShortHeader) {
		reason = err.Error()
	}
	c.log.Info().Err(err).Msg("stream.Conn read loop stopped")
	select {
	case c.ops <- worker.DisconnectOp{Reason: reason}:
	default:
	}
}

// GetOpList drains every buffered op. After the session ends and the buffer is
// empty it returns worker.ErrConnectionClosed.
func (c *Conn) GetOpList() ([]worker.Op, error) {
	out := c.drain()
	if len(out) > 0 {
		return out, nil
	}
	select {
	case <-c.done:
		if out = c.drain(); len(out) > 0 {
			return out, nil
		}
		return nil, fmt.Errorf("%w: %v", worker.ErrConnectionClosed, c.readErr())
	default:
		return nil, nil
	}
}

func (c *Conn) drain() []worker.Op {
	var out []worker.Op
	for {
		select {
		case op := <-c.ops:
			out = append(out, op)
		default:
			return out
		}
	}
}

func (c *Conn) readErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Conn) SendComponentUpdate(entityID worker.EntityID, componentID worker.ComponentID, update []tlv.Field) error {
	return c.send(worker.ComponentUpdateOp{
		EntityID:    entityID,
		ComponentID: componentID,
		Update:      update,
	})
}

// SendCommandRequest assigns the next request id of this session and sends the
// request. Responses from the runtime carry the same id.
func (c *Conn) SendCommandRequest(entityID worker.EntityID, componentID worker.ComponentID, index worker.CommandIndex, request []tlv.Field) (worker.RequestID, error) {
	id := worker.RequestID(c.nextRequestID.Add(1))
	err := c.send(worker.CommandRequestOp{
		RequestID:    id,
		EntityID:     entityID,
		ComponentID:  componentID,
		CommandIndex: index,
		Request:      request,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Conn) SendCommandResponse(requestID worker.RequestID, componentID worker.ComponentID, index worker.CommandIndex, response []tlv.Field) error {
	return c.send(worker.CommandResponseOp{
		RequestID:    requestID,
		ComponentID:  componentID,
		CommandIndex: index,
		Status:       worker.StatusSuccess,
		Response:     response,
	})
}

func (c *Conn) send(op worker.Op) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: %v", worker.ErrConnectionClosed, c.readErr())
	default:
	}
	f, err := session.OpFrame(c.nextMessageID.Add(1), op)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, f, c.limits); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if _, err := c.conn.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// Close ends the session and waits for the read loop to stop.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		err = c.conn.Close()
	})
	<-c.done
	return err
}

// Done is closed when the read loop stops.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
