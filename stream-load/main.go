package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"kanban-board/client"
	"kanban-board/config"
	"kanban-board/domain"
)

type loadConfig struct {
	Connections   int
	Duration      time.Duration
	WriteInterval time.Duration
	MaxFailRate   float64
}

func loadSettings() loadConfig {
	v := viper.New()
	v.SetEnvPrefix("load")
	v.AutomaticEnv()
	v.SetDefault("connections", 200)
	v.SetDefault("duration", 2*time.Minute)
	v.SetDefault("write_interval", 500*time.Millisecond)
	v.SetDefault("max_fail_rate", 0.01)
	return loadConfig{
		Connections:   v.GetInt("connections"),
		Duration:      v.GetDuration("duration"),
		WriteInterval: v.GetDuration("write_interval"),
		MaxFailRate:   v.GetFloat64("max_fail_rate"),
	}
}

type counters struct {
	events   atomic.Uint64
	attempts atomic.Uint64
	failures atomic.Uint64
	writes   atomic.Uint64
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lc := loadSettings()
	c := client.New(cfg.View.APIURL)

	ctx, cancel := context.WithTimeout(context.Background(), lc.Duration)
	defer cancel()

	var n counters
	var wg sync.WaitGroup
	wg.Add(lc.Connections)
	for range lc.Connections {
		go func() {
			defer wg.Done()
			listen(ctx, c, &n)
		}()
	}
	go write(ctx, c, lc.WriteInterval, &n)

	go func() {
		select {
		case <-time.After(60 * time.Second):
			if n.events.Load() == 0 {
				fmt.Println("no events received in 60s")
				os.Exit(1)
			}
		case <-ctx.Done():
		}
	}()

	wg.Wait()
	events, attempts, failures := n.events.Load(), n.attempts.Load(), n.failures.Load()
	failRate := 0.0
	if attempts > 0 {
		failRate = float64(failures) / float64(attempts)
	}
	fmt.Printf("connections=%d duration_sec=%d writes=%d events_received=%d connection_failures=%d\n",
		lc.Connections, int(lc.Duration.Seconds()), n.writes.Load(), events, failures)
	if events == 0 || failRate > lc.MaxFailRate {
		os.Exit(1)
	}
}

// listen keeps one stream open until ctx ends, reconnecting with backoff.
func listen(ctx context.Context, c *client.Client, n *counters) {
	backoff := time.Second
	for ctx.Err() == nil {
		n.attempts.Add(1)
		err := c.Watch(ctx, func(domain.Event) {
			n.events.Add(1)
			backoff = time.Second
		})
		if ctx.Err() != nil {
			return
		}
		n.failures.Add(1)
		log.WithError(err).Debug("stream dropped")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 5*time.Second)
	}
}

// write produces board events by adding tasks to a scratch column, which is
// deleted again at the end.
func write(ctx context.Context, c *client.Client, every time.Duration, n *counters) {
	res, err := c.AddColumn(ctx, fmt.Sprintf("load %d", time.Now().Unix()))
	if err != nil || res.Column == nil {
		log.WithError(err).Error("create scratch column")
		return
	}
	colID := res.Column.ID
	defer func() {
		cleanup, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := c.DeleteColumn(cleanup, colID); err != nil {
			log.WithError(err).Warn("delete scratch column")
		}
	}()

	t := time.NewTicker(every)
	defer t.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if _, err := c.AddTask(ctx, colID, fmt.Sprintf("load task %d", i)); err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Warn("add task")
			}
			continue
		}
		n.writes.Add(1)
	}
}
