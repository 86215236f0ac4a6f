package spatial

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type settings struct {
	log zerolog.Logger
}

// Option configures a Registry, Reader or Writer.
type Option func(*settings)

// WithLogger sets the logger. The default is the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

func newSettings(opts []Option) settings {
	s := settings{log: log.Logger}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}
