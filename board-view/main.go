package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"kanban-board/client"
	"kanban-board/config"
	"kanban-board/domain"
	"kanban-board/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg.View.APIURL)
	session := view.NewSession(c)
	program := tea.NewProgram(newModel(session), tea.WithAltScreen(), tea.WithContext(ctx))

	// Changes made elsewhere only trigger a refetch; event payloads are not
	// applied locally.
	go watch(ctx, c, program)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Fatalf("board view: %v", err)
	}
}

func watch(ctx context.Context, c *client.Client, p *tea.Program) {
	for {
		err := c.Watch(ctx, func(ev domain.Event) {
			p.Send(changedMsg{version: ev.Version})
		})
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Debug("board stream closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}
