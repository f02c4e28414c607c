package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
)

const (
	streamHello     = "hello"
	streamKeepAlive = 15 * time.Second
)

// streamEvents pushes one SSE message per committed mutation. The first
// message carries the current version so a client knows where it starts.
func streamEvents(store *domain.Store, subs Subscriber, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		ctx := c.Request().Context()
		ch, cancel := subs.Subscribe()
		defer cancel()

		c.Response().WriteHeader(http.StatusOK)
		if err := writeEvent(c, domain.Event{Type: streamHello, Version: store.Version(), Time: time.Now().UnixMilli()}); err != nil {
			return nil
		}
		flusher.Flush()

		ping := time.NewTicker(streamKeepAlive)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-ch:
				if err := writeEvent(c, ev); err != nil {
					logger.WithError(err).Debug("stream client gone")
					return nil
				}
			case <-ping.C:
				if _, err := c.Response().Write([]byte(": ping\n\n")); err != nil {
					return nil
				}
			}
			flusher.Flush()
		}
	}
}

func writeEvent(c echo.Context, ev domain.Event) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := c.Response().Write(data); err != nil {
		return err
	}
	_, err = c.Response().Write([]byte("\n\n"))
	return err
}
