package game

import (
	"context"

	components "github.com/danmuck/worldsync/internal/components/game"
	"github.com/danmuck/worldsync/internal/components/improbable"
	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/spatial"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DistancePerFrame = 0.1
	Distance         = 5.0
)

type (
	playerCell   = spatial.Component[components.Player, components.PlayerUpdate]
	positionCell = spatial.Component[improbable.Position, improbable.PositionUpdate]
)

// MovePlayers returns the system that walks every player the worker is
// authoritative over along a square of side 2*Distance, turning at each corner.
func MovePlayers(logger *zerolog.Logger) ecs.System {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return ecs.SystemFunc{
		Label: "move_players",
		Fn: func(_ context.Context, w *ecs.World) error {
			movePlayers(w, l)
			return nil
		},
	}
}

func movePlayers(w *ecs.World, l zerolog.Logger) {
	players := spatial.Storage(w, components.PlayerComponent)
	positions := spatial.Storage(w, improbable.PositionComponent)
	ecs.Join(players, positions, func(e ecs.Entity, player *playerCell, position *positionCell) bool {
		if !spatial.HasAuthority(w, improbable.PositionComponent, e) {
			return true
		}
		pos, err := position.Mutate()
		if err != nil {
			l.Debug().Err(err).Uint64("entity", uint64(e)).Msg("game.MovePlayers skipped entity")
			return true
		}
		if !step(player.Get().CurrentDirection, &pos.Coords) {
			return true
		}
		if !spatial.HasAuthority(w, components.PlayerComponent, e) {
			return true
		}
		p, err := player.Mutate()
		if err != nil {
			l.Debug().Err(err).Uint64("entity", uint64(e)).Msg("game.MovePlayers deferred turn")
			return true
		}
		p.CurrentDirection = (p.CurrentDirection + 1) % 4
		return true
	})
}

// step advances c one frame in direction and reports whether the edge of the
// square was crossed.
func step(direction uint32, c *improbable.Coordinates) bool {
	switch direction {
	case 0:
		c.X += DistancePerFrame
		return c.X > Distance
	case 1:
		c.Z += DistancePerFrame
		return c.Z > Distance
	case 2:
		c.X -= DistancePerFrame
		return c.X < -Distance
	case 3:
		c.Z -= DistancePerFrame
		return c.Z < -Distance
	default:
		return false
	}
}

// AnswerPlayerCreator returns the system that acknowledges every pending
// CreatePlayer request on entities the worker is authoritative over.
func AnswerPlayerCreator(logger *zerolog.Logger) ecs.System {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return ecs.SystemFunc{
		Label: "answer_player_creator",
		Fn: func(_ context.Context, w *ecs.World) error {
			answerPlayerCreator(w, l)
			return nil
		},
	}
}

func answerPlayerCreator(w *ecs.World, l zerolog.Logger) {
	ledgers := spatial.Requests(w, components.PlayerCreatorComponent)
	for e, ledger := range ledgers.All() {
		if !spatial.HasAuthority(w, components.PlayerCreatorComponent, e) {
			continue
		}
		ledger.Respond(func(req components.PlayerCreatorRequest, callerWorkerID string, _ []string) (components.PlayerCreatorResponse, bool) {
			switch req := req.(type) {
			case components.CreatePlayerRequest:
				l.Info().Str("name", req.Name).Str("caller", callerWorkerID).Msg("game.AnswerPlayerCreator create player")
				return components.CreatePlayerResponse{}, true
			default:
				return nil, false
			}
		})
	}
}
