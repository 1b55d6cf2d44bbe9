package normalize

import "github.com/okian/esmtidy/pkg/logger"

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithDaySentinel sets the testing-day value marking erroneous session starts.
func WithDaySentinel(sentinel string) Option {
	return func(n *Normalizer) {
		if sentinel != "" {
			n.daySentinel = sentinel
		}
	}
}

// WithExclusions sets the moniker exclusion list (pilot/test/dropout IDs).
func WithExclusions(monikers []string) Option {
	return func(n *Normalizer) {
		n.excluded = make(map[string]struct{}, len(monikers))
		for _, m := range monikers {
			n.excluded[m] = struct{}{}
		}
	}
}

// WithLogger sets a custom logger for the Normalizer.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}
