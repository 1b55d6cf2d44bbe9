package keyset

// options holds tracker construction settings.
type options struct {
	capacityHint int
}

// Option applies a configuration option to the tracker.
type Option func(*options)

// WithCapacityHint pre-sizes the tracker for an expected key count.
func WithCapacityHint(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacityHint = n
		}
	}
}
