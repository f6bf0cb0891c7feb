package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lms-client/internal/config"
	"github.com/iliyamo/lms-client/internal/httpclient"
	"github.com/iliyamo/lms-client/internal/notify"
	"github.com/iliyamo/lms-client/internal/session"
	"github.com/iliyamo/lms-client/internal/storage"
)

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

// openStorage builds the configured token storage.  A Redis client opened
// here is released by the returned closer.
func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, io.Closer, error) {
	opts := storage.Options{
		Driver: cfg.StorageDriver,
		Path:   cfg.StoragePath,
		DSN:    cfg.StorageDSN,
		Prefix: storage.DefaultRedisPrefix,
	}
	var rdb *redis.Client
	if cfg.StorageDriver == "redis" {
		rdb = config.NewRedisClient()
		if rdb == nil {
			return nil, nil, errors.New("redis storage: server unreachable")
		}
		opts.Redis = rdb
	}
	st, closer, err := storage.Open(ctx, opts)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	if rdb == nil {
		return st, closer, nil
	}
	return st, closeFunc(func() error {
		err := closer.Close()
		return errors.Join(err, rdb.Close())
	}), nil
}

// client bundles what every session-backed command needs.
type client struct {
	cfg    config.Config
	log    *slog.Logger
	api    *httpclient.Client
	store  *session.Store
	closer io.Closer
}

func newClient(ctx context.Context, cfg config.Config, logger *slog.Logger, n notify.Notifier, rec session.Recorder, path string) (*client, error) {
	st, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	api := httpclient.New(cfg.APIURL, httpclient.WithTimeout(cfg.HTTPTimeout))
	store := session.New(ctx, session.Deps{
		API:      api,
		Storage:  st,
		Notifier: n,
		Recorder: rec,
		Logger:   logger,
		Path:     path,
	})
	return &client{cfg: cfg, log: logger, api: api, store: store, closer: closer}, nil
}

func (c *client) Close() error { return c.closer.Close() }
