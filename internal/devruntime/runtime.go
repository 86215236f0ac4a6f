package devruntime

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/danmuck/worldsync/internal/auth"
	components "github.com/danmuck/worldsync/internal/components/game"
	"github.com/danmuck/worldsync/internal/components/improbable"
	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/danmuck/worldsync/internal/worker/stream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CreatorEntityID is the entity carrying PlayerCreator in every seeded world.
const CreatorEntityID worker.EntityID = 1000

const callerWorkerID = "devruntime"

type Config struct {
	ListenAddr string
	// Token is the login token workers must present. Empty admits any token.
	Token string
	// WorkerTypes restricts admitted worker types when non-empty.
	WorkerTypes []string
	Players     int
	// GuestName is sent in the CreatePlayer request after seeding. Empty
	// disables the request.
	GuestName string
	Session   session.Config
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: "127.0.0.1:7777",
		Players:    4,
		GuestName:  "guest",
		Session:    session.DefaultConfig(),
	}
}

// Stats counts traffic received from workers.
type Stats struct {
	Workers   uint64
	Rejected  uint64
	Updates   uint64
	Responses uint64
	Requests  uint64
}

type Runtime struct {
	cfg       Config
	log       zerolog.Logger
	authorize stream.Authorizer

	mu    sync.Mutex
	peers map[*stream.Peer]struct{}

	workers   atomic.Uint64
	rejected  atomic.Uint64
	updates   atomic.Uint64
	responses atomic.Uint64
	requests  atomic.Uint64
	wg        sync.WaitGroup
}

func New(cfg Config, logger *zerolog.Logger) *Runtime {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	cfg.Session = cfg.Session.WithDefaults()
	var v auth.Validator = auth.AllowAll
	if cfg.Token != "" {
		v = auth.StaticToken{Token: cfg.Token}
	}
	return &Runtime{
		cfg:       cfg,
		log:       l.With().Str("component", "devruntime").Logger(),
		authorize: auth.Connect(v, cfg.WorkerTypes...),
		peers:     make(map[*stream.Peer]struct{}),
	}
}

func (r *Runtime) Stats() Stats {
	return Stats{
		Workers:   r.workers.Load(),
		Rejected:  r.rejected.Load(),
		Updates:   r.updates.Load(),
		Responses: r.responses.Load(),
		Requests:  r.requests.Load(),
	}
}

// ListenAndServe listens on cfg.ListenAddr, with TLS when the session config
// enables it, and serves until ctx ends.
func (r *Runtime) ListenAndServe(ctx context.Context) error {
	ln, err := r.listen()
	if err != nil {
		return err
	}
	return r.Serve(ctx, ln)
}

func (r *Runtime) listen() (net.Listener, error) {
	if !r.cfg.Session.TLS.Enabled {
		return net.Listen("tcp", r.cfg.ListenAddr)
	}
	if err := r.cfg.Session.ValidateServerTransport(); err != nil {
		return nil, err
	}
	tlsCfg, err := r.cfg.Session.ServerTLSConfig()
	if err != nil {
		return nil, err
	}
	return tls.Listen("tcp", r.cfg.ListenAddr, tlsCfg)
}

// Serve accepts workers on ln until ctx ends. It closes ln and every open
// session before returning.
func (r *Runtime) Serve(ctx context.Context, ln net.Listener) error {
	r.log.Info().Str("addr", ln.Addr().String()).Msg("devruntime listening")
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
		r.closeAll()
	}()
	defer func() {
		close(stop)
		r.wg.Wait()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.handleConn(conn)
		}()
	}
}

func (r *Runtime) handleConn(conn net.Conn) {
	peer, err := stream.Accept(conn, r.cfg.Session, r.authorize)
	if err != nil {
		_ = conn.Close()
		if errors.Is(err, stream.ErrConnectRejected) {
			r.rejected.Add(1)
		}
		r.log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("devruntime connect failed")
		return
	}
	hello := peer.Worker()
	l := r.log.With().Str("worker_id", hello.WorkerID).Str("worker_type", hello.WorkerType).Logger()
	if !r.track(peer) {
		_ = peer.Close()
		return
	}
	defer r.untrack(peer)
	r.workers.Add(1)
	l.Info().Msg("devruntime worker connected")

	if err := r.seed(peer); err != nil {
		l.Warn().Err(err).Msg("devruntime seeding failed")
		return
	}
	r.pump(peer, l)
}

func (r *Runtime) seed(peer *stream.Peer) error {
	ops := SeedOps(r.cfg.Players)
	if r.cfg.GuestName != "" {
		index, fields, err := components.PlayerCreatorComponent.EncodeRequest(components.CreatePlayerRequest{Name: r.cfg.GuestName})
		if err != nil {
			return err
		}
		ops = append(ops, worker.CommandRequestOp{
			RequestID:      1,
			EntityID:       CreatorEntityID,
			ComponentID:    components.PlayerCreatorID,
			CommandIndex:   index,
			Request:        fields,
			CallerWorkerID: callerWorkerID,
		})
	}
	for _, op := range ops {
		if err := peer.Send(op); err != nil {
			return fmt.Errorf("send %s: %w", op.Kind(), err)
		}
	}
	return nil
}

func (r *Runtime) pump(peer *stream.Peer, l zerolog.Logger) {
	for {
		op, err := peer.Next()
		if err != nil {
			l.Info().Err(err).Msg("devruntime worker disconnected")
			return
		}
		switch op := op.(type) {
		case worker.ComponentUpdateOp:
			r.updates.Add(1)
			l.Trace().Int64("entity", int64(op.EntityID)).Uint32("component", uint32(op.ComponentID)).Int("fields", len(op.Update)).Msg("devruntime update")
		case worker.CommandResponseOp:
			r.responses.Add(1)
			l.Info().Uint64("request_id", uint64(op.RequestID)).Str("status", op.Status.String()).Msg("devruntime command response")
		case worker.CommandRequestOp:
			r.requests.Add(1)
			reply := worker.CommandResponseOp{
				RequestID:    op.RequestID,
				EntityID:     op.EntityID,
				ComponentID:  op.ComponentID,
				CommandIndex: op.CommandIndex,
				Status:       worker.StatusNotFound,
				Message:      "devruntime does not route worker commands",
			}
			if err := peer.Send(reply); err != nil {
				l.Warn().Err(err).Msg("devruntime reply failed")
				return
			}
		default:
			l.Debug().Str("op", op.Kind().String()).Msg("devruntime ignored op")
		}
	}
}

// SeedOps builds the initial view of a fresh world: one PlayerCreator entity
// and one entity per player carrying Metadata, Position, Persistence and Player,
// all writable by the worker.
func SeedOps(players int) []worker.Op {
	ops := []worker.Op{
		worker.AddEntityOp{EntityID: CreatorEntityID},
		worker.AddComponentOp{
			EntityID:    CreatorEntityID,
			ComponentID: components.PlayerCreatorID,
			Data:        components.PlayerCreatorComponent.EncodeData(components.PlayerCreator{}),
		},
		worker.AuthorityChangeOp{EntityID: CreatorEntityID, ComponentID: components.PlayerCreatorID, Authority: worker.Authoritative},
	}
	for i := 1; i <= players; i++ {
		id := worker.EntityID(i)
		data := []struct {
			component worker.ComponentID
			fields    []tlv.Field
		}{
			{improbable.MetadataID, improbable.MetadataComponent.EncodeData(improbable.Metadata{EntityType: "Player"})},
			{improbable.PositionID, improbable.PositionComponent.EncodeData(improbable.Position{})},
			{improbable.PersistenceID, improbable.PersistenceComponent.EncodeData(improbable.Persistence{})},
			{components.PlayerID, components.PlayerComponent.EncodeData(components.Player{
				Name:             fmt.Sprintf("player-%d", i),
				CurrentDirection: uint32(i % 4),
			})},
		}
		ops = append(ops, worker.AddEntityOp{EntityID: id})
		for _, d := range data {
			ops = append(ops, worker.AddComponentOp{EntityID: id, ComponentID: d.component, Data: d.fields})
		}
		ops = append(ops,
			worker.AuthorityChangeOp{EntityID: id, ComponentID: improbable.PositionID, Authority: worker.Authoritative},
			worker.AuthorityChangeOp{EntityID: id, ComponentID: components.PlayerID, Authority: worker.Authoritative},
		)
	}
	return ops
}

func (r *Runtime) track(p *stream.Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.peers == nil {
		return false
	}
	r.peers[p] = struct{}{}
	return true
}

func (r *Runtime) untrack(p *stream.Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.peers != nil {
		delete(r.peers, p)
	}
	_ = p.Close()
}

func (r *Runtime) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for p := range r.peers {
		_ = p.Close()
	}
	r.peers = nil
}
