package game

import (
	"fmt"

	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/spatial"
	"github.com/danmuck/worldsync/internal/worker"
)

const (
	PlayerCreatorID worker.ComponentID = 1001
	PlayerID        worker.ComponentID = 1002

	CreatePlayerIndex worker.CommandIndex = 1
)

// Player

type Player struct {
	Name             string
	CurrentDirection uint32
}

type PlayerUpdate struct {
	Name             spatial.Optional[string]
	CurrentDirection spatial.Optional[uint32]
}

var PlayerComponent = &spatial.Definition[Player, PlayerUpdate, spatial.NoCommand, spatial.NoCommand]{
	Schema: spatial.Schema[Player, PlayerUpdate]{
		ID:   PlayerID,
		Name: "game.Player",
		Merge: func(v *Player, u PlayerUpdate) {
			u.Name.ApplyTo(&v.Name)
			u.CurrentDirection.ApplyTo(&v.CurrentDirection)
		},
		MergeUpdate: func(p *PlayerUpdate, n PlayerUpdate) {
			p.Name = n.Name.Or(p.Name)
			p.CurrentDirection = n.CurrentDirection.Or(p.CurrentDirection)
		},
		ToUpdate: func(v Player) PlayerUpdate {
			return PlayerUpdate{
				Name:             spatial.Some(v.Name),
				CurrentDirection: spatial.Some(v.CurrentDirection),
			}
		},
		DecodeData:   decodePlayer,
		EncodeData:   encodePlayer,
		DecodeUpdate: decodePlayerUpdate,
		EncodeUpdate: encodePlayerUpdate,
	},
}

func decodePlayer(fields []tlv.Field) (Player, error) {
	var p Player
	var err error
	if p.Name, err = spatial.Value(fields, 1, tlv.Field.AsString); err != nil {
		return p, err
	}
	if p.CurrentDirection, err = spatial.Value(fields, 2, tlv.Field.AsU32); err != nil {
		return p, err
	}
	return p, nil
}

func encodePlayer(p Player) []tlv.Field {
	return []tlv.Field{tlv.String(1, p.Name), tlv.U32(2, p.CurrentDirection)}
}

func decodePlayerUpdate(fields []tlv.Field) (PlayerUpdate, error) {
	var u PlayerUpdate
	var err error
	if u.Name, err = spatial.LookupOptional(fields, 1, tlv.Field.AsString); err != nil {
		return u, err
	}
	if u.CurrentDirection, err = spatial.LookupOptional(fields, 2, tlv.Field.AsU32); err != nil {
		return u, err
	}
	return u, nil
}

func encodePlayerUpdate(u PlayerUpdate) []tlv.Field {
	var out []tlv.Field
	if v, ok := u.Name.Get(); ok {
		out = append(out, tlv.String(1, v))
	}
	if v, ok := u.CurrentDirection.Get(); ok {
		out = append(out, tlv.U32(2, v))
	}
	return out
}

// PlayerCreator

type PlayerCreator struct{}

type PlayerCreatorUpdate struct{}

// PlayerCreatorRequest is implemented by every PlayerCreator command request.
type PlayerCreatorRequest interface {
	playerCreatorRequest()
}

// PlayerCreatorResponse is implemented by every PlayerCreator command response.
type PlayerCreatorResponse interface {
	playerCreatorResponse()
}

type CreatePlayerRequest struct {
	Name string
}

type CreatePlayerResponse struct{}

func (CreatePlayerRequest) playerCreatorRequest()   {}
func (CreatePlayerResponse) playerCreatorResponse() {}

var PlayerCreatorComponent = &spatial.Definition[PlayerCreator, PlayerCreatorUpdate, PlayerCreatorRequest, PlayerCreatorResponse]{
	Schema: spatial.Schema[PlayerCreator, PlayerCreatorUpdate]{
		ID:          PlayerCreatorID,
		Name:        "game.PlayerCreator",
		Merge:       func(*PlayerCreator, PlayerCreatorUpdate) {},
		MergeUpdate: func(*PlayerCreatorUpdate, PlayerCreatorUpdate) {},
		ToUpdate:    func(PlayerCreator) PlayerCreatorUpdate { return PlayerCreatorUpdate{} },
		DecodeData: func([]tlv.Field) (PlayerCreator, error) {
			return PlayerCreator{}, nil
		},
		EncodeData: func(PlayerCreator) []tlv.Field { return nil },
		DecodeUpdate: func([]tlv.Field) (PlayerCreatorUpdate, error) {
			return PlayerCreatorUpdate{}, nil
		},
		EncodeUpdate: func(PlayerCreatorUpdate) []tlv.Field { return nil },
	},
	Commands: spatial.Commands[PlayerCreatorRequest, PlayerCreatorResponse]{
		DecodeRequest:  decodePlayerCreatorRequest,
		EncodeRequest:  encodePlayerCreatorRequest,
		DecodeResponse: decodePlayerCreatorResponse,
		EncodeResponse: encodePlayerCreatorResponse,
	},
}

func decodePlayerCreatorRequest(index worker.CommandIndex, fields []tlv.Field) (PlayerCreatorRequest, error) {
	switch index {
	case CreatePlayerIndex:
		name, err := spatial.Value(fields, 1, tlv.Field.AsString)
		if err != nil {
			return nil, err
		}
		return CreatePlayerRequest{Name: name}, nil
	default:
		return nil, spatial.UnknownCommandIndex("PlayerCreator", index)
	}
}

func encodePlayerCreatorRequest(req PlayerCreatorRequest) (worker.CommandIndex, []tlv.Field, error) {
	switch req := req.(type) {
	case CreatePlayerRequest:
		return CreatePlayerIndex, []tlv.Field{tlv.String(1, req.Name)}, nil
	default:
		return 0, nil, fmt.Errorf("game: unsupported PlayerCreator request %T", req)
	}
}

func decodePlayerCreatorResponse(index worker.CommandIndex, _ []tlv.Field) (PlayerCreatorResponse, error) {
	switch index {
	case CreatePlayerIndex:
		return CreatePlayerResponse{}, nil
	default:
		return nil, spatial.UnknownCommandIndex("PlayerCreator", index)
	}
}

func encodePlayerCreatorResponse(resp PlayerCreatorResponse) (worker.CommandIndex, []tlv.Field, error) {
	switch resp.(type) {
	case CreatePlayerResponse:
		return CreatePlayerIndex, nil, nil
	default:
		return 0, nil, fmt.Errorf("game: unsupported PlayerCreator response %T", resp)
	}
}

// Register adds the game components to r.
func Register(r *spatial.Registry) error {
	if _, err := spatial.Register(r, PlayerCreatorComponent); err != nil {
		return err
	}
	if _, err := spatial.Register(r, PlayerComponent); err != nil {
		return err
	}
	return nil
}
