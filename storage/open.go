package storage

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"kanban-board/config"
	"kanban-board/domain"
)

// Open returns the snapshot storage selected by cfg.Storage.Driver and a
// func releasing its resources.
func Open(cfg config.Config) (domain.SnapshotStorage, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Storage.Driver {
	case config.DriverFile:
		fs, err := NewFileStorage(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return fs, nop, nil
	case config.DriverSQLite:
		s, err := NewSQLiteStorage(cfg.Storage.SQLitePath, cfg.Storage.History)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverRedis:
		opts, err := config.RedisOptions(cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		rc := redis.NewClient(opts)
		return NewRedisStorage(rc, cfg.Redis.Key), rc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
