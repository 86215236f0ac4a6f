package stream

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/danmuck/worldsync/internal/protocol/frame"
	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrAddressRequired  = errors.New("stream: runtime address required")
	ErrWorkerIDRequired = errors.New("stream: worker id required")
	ErrConnectRejected  = errors.New("stream: connect rejected")
)

type ClientConfig struct {
	Address            string
	WorkerID           string
	WorkerType         string
	Attributes         []string
	Token              string
	Session            session.Config
	MaxConnectAttempts int
	Logger             *zerolog.Logger
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WorkerType: "managed",
		Session:    session.DefaultConfig(),
	}
}

// Client dials the runtime and performs the connect handshake.
type Client struct {
	cfg ClientConfig
	log zerolog.Logger
	rng *rand.Rand
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if strings.TrimSpace(cfg.WorkerID) == "" {
		return nil, ErrWorkerIDRequired
	}
	if strings.TrimSpace(cfg.WorkerType) == "" {
		cfg.WorkerType = "managed"
	}
	cfg.Session = cfg.Session.WithDefaults()
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Client{
		cfg: cfg,
		log: logger.With().Str("worker_id", cfg.WorkerID).Logger(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Connect dials, handshakes, and returns a live session. Dial and handshake
// failures are retried with backoff until MaxConnectAttempts (0 means no
// limit) or ctx ends; a rejected connect is not retried.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	var attempt int
	for {
		attempt++
		raw, err := c.dial(ctx)
		if err == nil {
			var conn *Conn
			conn, err = c.handshake(raw)
			if err == nil {
				c.log.Info().Str("addr", c.cfg.Address).Int("attempt", attempt).Msg("stream.Client connected")
				return conn, nil
			}
			_ = raw.Close()
			if errors.Is(err, ErrConnectRejected) {
				return nil, err
			}
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Str("addr", c.cfg.Address).Msg("stream.Client connect failed")
		if !c.shouldRetry(attempt) {
			return nil, err
		}
		if err := session.SleepBackoff(ctx, c.cfg.Session.Backoff, attempt, c.rng); err != nil {
			return nil, err
		}
	}
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	if err := c.cfg.Session.ValidateClientTransport(); err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: c.cfg.Session.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address)
	if err != nil {
		return nil, err
	}
	if !c.cfg.Session.TLS.Enabled {
		return rawConn, nil
	}

	tlsCfg, err := c.cfg.Session.ClientTLSConfig(c.cfg.Address)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, c.cfg.Session.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) shouldRetry(attempt int) bool {
	if c.cfg.MaxConnectAttempts <= 0 {
		return true
	}
	return attempt < c.cfg.MaxConnectAttempts
}

func (c *Client) handshake(conn net.Conn) (*Conn, error) {
	_ = conn.SetDeadline(time.Now().Add(c.cfg.Session.HandshakeTimeout))
	reader := bufio.NewReader(conn)

	payload, err := session.EncodeConnectFrame(1, session.Connect{
		WorkerID:   c.cfg.WorkerID,
		WorkerType: c.cfg.WorkerType,
		Attributes: c.cfg.Attributes,
		Token:      c.cfg.Token,
	})
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}
	fr, err := frame.ReadFrame(reader, frame.DefaultLimits())
	if err != nil {
		return nil, err
	}
	ack, err := session.DecodeConnectAckFrame(fr)
	if err != nil {
		return nil, err
	}
	if !ack.Accepted() {
		return nil, fmt.Errorf("%w: code=%d message=%q", ErrConnectRejected, ack.Code, ack.Message)
	}
	_ = conn.SetDeadline(time.Time{})
	return newConn(conn, reader, c.cfg.Session, c.log), nil
}
