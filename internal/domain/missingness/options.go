package missingness

// options holds profiler settings.
type options struct {
	gateColumn      string
	excludedColumns []string
}

// Option applies a configuration option to Profile.
type Option func(*options)

// WithGateColumn designates the branch-gate column; patterns involving it are
// grouped apart from true missingness and the column floats to the front of
// the report's column order.
func WithGateColumn(column string) Option {
	return func(o *options) {
		o.gateColumn = column
	}
}

// WithExcludedColumns removes columns from summary statistics entirely.
// Intended for the sleep/wake clock variables whose collection was defective;
// exclusion is a caller decision, never a default.
func WithExcludedColumns(columns ...string) Option {
	return func(o *options) {
		o.excludedColumns = append(o.excludedColumns, columns...)
	}
}
