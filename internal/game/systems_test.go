package game

import (
	"context"
	"testing"

	components "github.com/danmuck/worldsync/internal/components/game"
	"github.com/danmuck/worldsync/internal/components/improbable"
	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/spatial"
	"github.com/danmuck/worldsync/internal/testutil/fakeconn"
	"github.com/danmuck/worldsync/internal/testutil/testlog"
	"github.com/danmuck/worldsync/internal/worker"
)

func newWorld(t *testing.T) (*ecs.World, *spatial.Reader, *spatial.Writer) {
	t.Helper()
	registry := spatial.NewRegistry()
	if err := components.Register(registry); err != nil {
		t.Fatalf("register game: %v", err)
	}
	if err := improbable.Register(registry); err != nil {
		t.Fatalf("register improbable: %v", err)
	}
	w := ecs.NewWorld()
	reader := spatial.NewReader(registry)
	reader.Setup(w)
	return w, reader, spatial.NewWriter(registry)
}

func spawnPlayer(id worker.EntityID, x float64, direction uint32, authority worker.Authority) []worker.Op {
	coords := tlv.Object(1, []tlv.Field{tlv.F64(1, x), tlv.F64(2, 0), tlv.F64(3, 0)})
	return []worker.Op{
		worker.AddEntityOp{EntityID: id},
		worker.AddComponentOp{EntityID: id, ComponentID: components.PlayerID, Data: []tlv.Field{tlv.String(1, "p"), tlv.U32(2, direction)}},
		worker.AddComponentOp{EntityID: id, ComponentID: improbable.PositionID, Data: []tlv.Field{coords}},
		worker.AuthorityChangeOp{EntityID: id, ComponentID: components.PlayerID, Authority: authority},
		worker.AuthorityChangeOp{EntityID: id, ComponentID: improbable.PositionID, Authority: authority},
	}
}

func local(t *testing.T, w *ecs.World, id worker.EntityID) ecs.Entity {
	t.Helper()
	e, ok := spatial.Entities(w).Local(id)
	if !ok {
		t.Fatalf("entity %d not mapped", id)
	}
	return e
}

func TestStepWalksTheSquare(t *testing.T) {
	testlog.Start(t)
	near, one := 4.95, 1.0
	cases := []struct {
		direction uint32
		start     improbable.Coordinates
		want      improbable.Coordinates
		turn      bool
	}{
		{0, improbable.Coordinates{}, improbable.Coordinates{X: DistancePerFrame}, false},
		{1, improbable.Coordinates{Z: near}, improbable.Coordinates{Z: near + DistancePerFrame}, true},
		{2, improbable.Coordinates{X: -near}, improbable.Coordinates{X: -near - DistancePerFrame}, true},
		{3, improbable.Coordinates{Z: one}, improbable.Coordinates{Z: one - DistancePerFrame}, false},
		{7, improbable.Coordinates{X: one}, improbable.Coordinates{X: one}, false},
	}
	for _, tc := range cases {
		c := tc.start
		if turn := step(tc.direction, &c); turn != tc.turn {
			t.Fatalf("direction %d: turn=%v want %v", tc.direction, turn, tc.turn)
		}
		if c != tc.want {
			t.Fatalf("direction %d: got %+v want %+v", tc.direction, c, tc.want)
		}
	}
}

func TestMovePlayersReplicatesPositionAndTurn(t *testing.T) {
	testlog.Start(t)
	w, reader, writer := newWorld(t)
	if err := reader.Process(w, spawnPlayer(3, 4.95, 0, worker.Authoritative)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := MovePlayers(nil).Run(context.Background(), w); err != nil {
		t.Fatalf("move players: %v", err)
	}
	e := local(t, w, 3)
	player, _ := spatial.Get(w, components.PlayerComponent, e)
	if got := player.Get().CurrentDirection; got != 1 {
		t.Fatalf("direction: got %d want 1", got)
	}

	conn := fakeconn.New()
	if err := writer.Run(w, conn); err != nil {
		t.Fatalf("writer: %v", err)
	}
	if len(conn.Updates) != 2 {
		t.Fatalf("expected player and position updates, got %d", len(conn.Updates))
	}
	for _, u := range conn.Updates {
		if u.EntityID != 3 {
			t.Fatalf("unexpected entity: %+v", u)
		}
	}
	if conn.Updates[1].ComponentID != components.PlayerID {
		t.Fatalf("updates should follow registry order, got %+v", conn.Updates)
	}
}

func TestMovePlayersSkipsNonAuthoritativeEntities(t *testing.T) {
	testlog.Start(t)
	w, reader, writer := newWorld(t)
	if err := reader.Process(w, spawnPlayer(4, 1, 0, worker.NotAuthoritative)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := MovePlayers(nil).Run(context.Background(), w); err != nil {
		t.Fatalf("move players: %v", err)
	}
	position, _ := spatial.Get(w, improbable.PositionComponent, local(t, w, 4))
	if got := position.Get().Coords.X; got != 1 {
		t.Fatalf("position moved without authority: %v", got)
	}
	conn := fakeconn.New()
	if err := writer.Run(w, conn); err != nil {
		t.Fatalf("writer: %v", err)
	}
	if len(conn.Updates) != 0 {
		t.Fatalf("expected no updates, got %d", len(conn.Updates))
	}
}

func TestAnswerPlayerCreatorRespondsOnce(t *testing.T) {
	testlog.Start(t)
	w, reader, writer := newWorld(t)
	ops := []worker.Op{
		worker.AddEntityOp{EntityID: 1},
		worker.AddComponentOp{EntityID: 1, ComponentID: components.PlayerCreatorID},
		worker.AuthorityChangeOp{EntityID: 1, ComponentID: components.PlayerCreatorID, Authority: worker.Authoritative},
		worker.CommandRequestOp{
			RequestID:      9,
			EntityID:       1,
			ComponentID:    components.PlayerCreatorID,
			CommandIndex:   components.CreatePlayerIndex,
			Request:        []tlv.Field{tlv.String(1, "alice")},
			CallerWorkerID: "client-1",
		},
	}
	if err := reader.Process(w, ops); err != nil {
		t.Fatalf("process: %v", err)
	}

	sys := AnswerPlayerCreator(nil)
	conn := fakeconn.New()
	for range 2 {
		if err := sys.Run(context.Background(), w); err != nil {
			t.Fatalf("answer: %v", err)
		}
		if err := writer.Run(w, conn); err != nil {
			t.Fatalf("writer: %v", err)
		}
	}
	if len(conn.Responses) != 1 {
		t.Fatalf("expected one response, got %d", len(conn.Responses))
	}
	resp := conn.Responses[0]
	if resp.RequestID != 9 || resp.ComponentID != components.PlayerCreatorID || resp.CommandIndex != components.CreatePlayerIndex {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
