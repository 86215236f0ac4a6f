package improbable

import (
	"github.com/danmuck/worldsync/internal/protocol/tlv"
	"github.com/danmuck/worldsync/internal/spatial"
	"github.com/danmuck/worldsync/internal/worker"
)

const (
	MetadataID    worker.ComponentID = 53
	PositionID    worker.ComponentID = 54
	PersistenceID worker.ComponentID = 55
)

// Coordinates is a point in world space.
type Coordinates struct {
	X, Y, Z float64
}

func (c Coordinates) fields() []tlv.Field {
	return []tlv.Field{tlv.F64(1, c.X), tlv.F64(2, c.Y), tlv.F64(3, c.Z)}
}

func decodeCoordinates(fields []tlv.Field) (Coordinates, error) {
	var c Coordinates
	var err error
	if c.X, err = spatial.Value(fields, 1, tlv.Field.AsF64); err != nil {
		return c, err
	}
	if c.Y, err = spatial.Value(fields, 2, tlv.Field.AsF64); err != nil {
		return c, err
	}
	if c.Z, err = spatial.Value(fields, 3, tlv.Field.AsF64); err != nil {
		return c, err
	}
	return c, nil
}

func asCoordinates(f tlv.Field) (Coordinates, error) {
	fields, err := f.AsObject()
	if err != nil {
		return Coordinates{}, err
	}
	return decodeCoordinates(fields)
}

// Metadata

type Metadata struct {
	EntityType string
}

type MetadataUpdate struct {
	EntityType spatial.Optional[string]
}

var MetadataComponent = &spatial.Definition[Metadata, MetadataUpdate, spatial.NoCommand, spatial.NoCommand]{
	Schema: spatial.Schema[Metadata, MetadataUpdate]{
		ID:   MetadataID,
		Name: "improbable.Metadata",
		Merge: func(v *Metadata, u MetadataUpdate) {
			u.EntityType.ApplyTo(&v.EntityType)
		},
		MergeUpdate: func(p *MetadataUpdate, n MetadataUpdate) {
			p.EntityType = n.EntityType.Or(p.EntityType)
		},
		ToUpdate: func(v Metadata) MetadataUpdate {
			return MetadataUpdate{EntityType: spatial.Some(v.EntityType)}
		},
		DecodeData: func(fields []tlv.Field) (Metadata, error) {
			entityType, err := spatial.Value(fields, 1, tlv.Field.AsString)
			return Metadata{EntityType: entityType}, err
		},
		EncodeData: func(v Metadata) []tlv.Field {
			return []tlv.Field{tlv.String(1, v.EntityType)}
		},
		DecodeUpdate: func(fields []tlv.Field) (MetadataUpdate, error) {
			entityType, err := spatial.LookupOptional(fields, 1, tlv.Field.AsString)
			return MetadataUpdate{EntityType: entityType}, err
		},
		EncodeUpdate: func(u MetadataUpdate) []tlv.Field {
			var out []tlv.Field
			if v, ok := u.EntityType.Get(); ok {
				out = append(out, tlv.String(1, v))
			}
			return out
		},
	},
}

// Position

type Position struct {
	Coords Coordinates
}

type PositionUpdate struct {
	Coords spatial.Optional[Coordinates]
}

var PositionComponent = &spatial.Definition[Position, PositionUpdate, spatial.NoCommand, spatial.NoCommand]{
	Schema: spatial.Schema[Position, PositionUpdate]{
		ID:   PositionID,
		Name: "improbable.Position",
		Merge: func(v *Position, u PositionUpdate) {
			u.Coords.ApplyTo(&v.Coords)
		},
		MergeUpdate: func(p *PositionUpdate, n PositionUpdate) {
			p.Coords = n.Coords.Or(p.Coords)
		},
		ToUpdate: func(v Position) PositionUpdate {
			return PositionUpdate{Coords: spatial.Some(v.Coords)}
		},
		DecodeData: func(fields []tlv.Field) (Position, error) {
			coords, err := spatial.Value(fields, 1, asCoordinates)
			return Position{Coords: coords}, err
		},
		EncodeData: func(v Position) []tlv.Field {
			return []tlv.Field{tlv.Object(1, v.Coords.fields())}
		},
		DecodeUpdate: func(fields []tlv.Field) (PositionUpdate, error) {
			coords, err := spatial.LookupOptional(fields, 1, asCoordinates)
			return PositionUpdate{Coords: coords}, err
		},
		EncodeUpdate: func(u PositionUpdate) []tlv.Field {
			var out []tlv.Field
			if v, ok := u.Coords.Get(); ok {
				out = append(out, tlv.Object(1, v.fields()))
			}
			return out
		},
	},
}

// Persistence marks an entity as saved in snapshots. It has no fields.

type Persistence struct{}

type PersistenceUpdate struct{}

var PersistenceComponent = &spatial.Definition[Persistence, PersistenceUpdate, spatial.NoCommand, spatial.NoCommand]{
	Schema: spatial.Schema[Persistence, PersistenceUpdate]{
		ID:          PersistenceID,
		Name:        "improbable.Persistence",
		Merge:       func(*Persistence, PersistenceUpdate) {},
		MergeUpdate: func(*PersistenceUpdate, PersistenceUpdate) {},
		ToUpdate:    func(Persistence) PersistenceUpdate { return PersistenceUpdate{} },
		DecodeData: func([]tlv.Field) (Persistence, error) {
			return Persistence{}, nil
		},
		EncodeData: func(Persistence) []tlv.Field { return nil },
		DecodeUpdate: func([]tlv.Field) (PersistenceUpdate, error) {
			return PersistenceUpdate{}, nil
		},
		EncodeUpdate: func(PersistenceUpdate) []tlv.Field { return nil },
	},
}

// Register adds every standard component to r.
func Register(r *spatial.Registry) error {
	if _, err := spatial.Register(r, MetadataComponent); err != nil {
		return err
	}
	if _, err := spatial.Register(r, PositionComponent); err != nil {
		return err
	}
	if _, err := spatial.Register(r, PersistenceComponent); err != nil {
		return err
	}
	return nil
}
