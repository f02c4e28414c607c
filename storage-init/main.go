package main

import (
	"context"
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"kanban-board/config"
	"kanban-board/events"
	"kanban-board/seed"
	"kanban-board/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	ctx := context.Background()

	if cfg.Events.QueueConnectionString != "" {
		if err := createQueues(ctx, cfg.Events.QueueConnectionString, []string{cfg.Events.QueueName}); err != nil {
			log.Fatalf("create queues: %v", err)
		}
	}

	if cfg.Storage.Driver == config.DriverSQLite {
		if err := storage.Migrate(cfg.Storage.SQLitePath); err != nil {
			log.Fatalf("migrate %s: %v", cfg.Storage.SQLitePath, err)
		}
		log.WithField("path", cfg.Storage.SQLitePath).Info("sqlite migrations applied")
	}

	if cfg.Seed.Path != "" {
		f, err := seed.ReadFile(cfg.Seed.Path)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		st, closeStorage, err := storage.Open(cfg)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		if _, err := seed.Apply(ctx, st, f); err != nil {
			_ = closeStorage()
			log.Fatalf("seed: %v", err)
		}
		if err := closeStorage(); err != nil {
			log.WithError(err).Warn("close storage")
		}
	}

	log.Info("storage init complete")
}

func createQueues(ctx context.Context, connStr string, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, events.QueueClientOptions())
		if err != nil {
			return err
		}
		_, err = q.Create(ctx, nil)
		if err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
				return err
			}
		}
	}
	return nil
}
