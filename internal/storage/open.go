package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lms-client/internal/database"
)

// Options selects and configures a backend.
type Options struct {
	Driver string // memory | file | redis | sqlite | mysql | postgres
	Path   string // file path (file) or database file (sqlite, when DSN is empty)
	DSN    string // mysql/postgres DSN, or sqlite DSN override
	Redis  *redis.Client
	Prefix string // redis key prefix
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend.  The returned closer releases any
// connection the backend owns; it never closes a caller-supplied Redis client.
func Open(ctx context.Context, opts Options) (Storage, io.Closer, error) {
	switch opts.Driver {
	case "", "file":
		if opts.Path == "" {
			return nil, nil, fmt.Errorf("file storage requires a path")
		}
		f, err := NewFile(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return f, nopCloser{}, nil
	case "memory":
		return NewMemory(), nopCloser{}, nil
	case "redis":
		if opts.Redis == nil {
			return nil, nil, fmt.Errorf("redis storage requires a reachable redis server")
		}
		return NewRedis(opts.Redis, opts.Prefix), nopCloser{}, nil
	case database.DriverSQLite, database.DriverMySQL, database.DriverPostgres:
		dsn := opts.DSN
		if dsn == "" && opts.Driver == database.DriverSQLite {
			dsn = opts.Path
		}
		if dsn == "" {
			return nil, nil, fmt.Errorf("%s storage requires a DSN", opts.Driver)
		}
		db, err := database.Open(opts.Driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s storage: %w", opts.Driver, err)
		}
		s := NewSQL(db, opts.Driver)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("storage schema: %w", err)
		}
		return s, db, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
