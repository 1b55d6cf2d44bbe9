package pipeline

import (
	"github.com/okian/esmtidy/internal/adapters/repository"
	"github.com/okian/esmtidy/internal/config"
	"github.com/okian/esmtidy/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithConfig sets the run configuration.
func WithConfig(cfg *config.Config) Option {
	return func(p *Pipeline) {
		if cfg != nil {
			p.cfg = cfg
		}
	}
}

// WithStore sets the artifact store outputs are registered in.
func WithStore(store repository.Store) Option {
	return func(p *Pipeline) {
		if store != nil {
			p.store = store
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
