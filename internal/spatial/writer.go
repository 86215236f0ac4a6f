package spatial

import (
	"errors"

	"github.com/danmuck/worldsync/internal/ecs"
	"github.com/danmuck/worldsync/internal/worker"
	"github.com/rs/zerolog"
)

// Writer replicates local state to the runtime at the end of a frame.
type Writer struct {
	registry *Registry
	log      zerolog.Logger
}

func NewWriter(registry *Registry, opts ...Option) *Writer {
	s := newSettings(opts)
	return &Writer{registry: registry, log: s.log}
}

// Run flushes every component type in registry order: authoritative cell
// updates, then buffered command requests, then command responses. Send
// failures do not stop the flush; they are returned joined.
func (wr *Writer) Run(w *ecs.World, conn worker.Connection) error {
	var errs []error
	for _, d := range wr.registry.Dispatchers() {
		if err := d.Replicate(w, conn); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		wr.log.Error().Err(err).Int("failed_types", len(errs)).Msg("spatial.Writer flush incomplete")
	}
	return err
}
