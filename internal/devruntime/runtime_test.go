package devruntime

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	components "github.com/danmuck/worldsync/internal/components/game"
	"github.com/danmuck/worldsync/internal/components/improbable"
	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/engine"
	"github.com/danmuck/worldsync/internal/game"
	"github.com/danmuck/worldsync/internal/spatial"
	"github.com/danmuck/worldsync/internal/testutil/testlog"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/danmuck/worldsync/internal/worker/stream"
)

func startRuntime(t *testing.T, cfg Config) (*Runtime, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	rt := New(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return rt, ln.Addr().String()
}

func clientConfig(addr, token string) stream.ClientConfig {
	cfg := stream.DefaultClientConfig()
	cfg.Address = addr
	cfg.WorkerID = "worker-e2e"
	cfg.Token = token
	cfg.MaxConnectAttempts = 1
	return cfg
}

func TestSeedOpsDescribeAWritableWorld(t *testing.T) {
	testlog.Start(t)
	registry := spatial.NewRegistry()
	if err := improbable.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := components.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	w := ecs.NewWorld()
	reader := spatial.NewReader(registry)
	reader.Setup(w)
	if err := reader.Process(w, SeedOps(3)); err != nil {
		t.Fatalf("seed ops must apply cleanly: %v", err)
	}
	if got := spatial.Entities(w).Len(); got != 4 {
		t.Fatalf("entities: got %d want 4", got)
	}
	e, _ := spatial.Entities(w).Local(2)
	player, ok := spatial.Get(w, components.PlayerComponent, e)
	if !ok || player.Get().Name != "player-2" || player.Get().CurrentDirection != 2 {
		t.Fatalf("unexpected player: %+v", player)
	}
	if !spatial.HasAuthority(w, improbable.PositionComponent, e) {
		t.Fatalf("worker should be authoritative over position")
	}
}

func TestWorkerRoundTripAgainstRuntime(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.Token = "dev-token"
	cfg.Players = 2
	rt, addr := startRuntime(t, cfg)

	client, err := stream.NewClient(clientConfig(addr, "dev-token"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	conn, err := client.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	registry := spatial.NewRegistry()
	if err := improbable.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := components.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	eng := engine.New(registry, conn, ecs.NewSchedule(game.AnswerPlayerCreator(nil), game.MovePlayers(nil)))

	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := eng.Tick(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
		stats := rt.Stats()
		if stats.Responses >= 1 && stats.Updates >= 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("runtime did not observe worker output: %+v", stats)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if rt.Stats().Workers != 1 {
		t.Fatalf("workers: %+v", rt.Stats())
	}
}

func TestRuntimeRejectsBadToken(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.Token = "dev-token"
	rt, addr := startRuntime(t, cfg)

	client, err := stream.NewClient(clientConfig(addr, "wrong"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Connect(context.Background()); !errors.Is(err, stream.ErrConnectRejected) {
		t.Fatalf("expected ErrConnectRejected, got %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for rt.Stats().Rejected == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("rejection not counted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRuntimeDisconnectEndsWorkerSession(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.Players = 0
	cfg.GuestName = ""
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	rt := New(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Serve(ctx, ln) }()

	client, err := stream.NewClient(clientConfig(ln.Addr().String(), ""))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	conn, err := client.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("worker session should end when the runtime stops")
	}
	ops, _ := conn.GetOpList()
	var sawDisconnect bool
	for _, op := range ops {
		if _, ok := op.(worker.DisconnectOp); ok {
			sawDisconnect = true
		}
	}
	if !sawDisconnect {
		t.Fatalf("expected a disconnect op, got %+v", ops)
	}
}
