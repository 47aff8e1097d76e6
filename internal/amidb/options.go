package amidb

import "log/slog"

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for import diagnostics. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}
