package api

import (
	"net/http"

	"github.com/graph-gophers/graphql-go/relay"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
)

// Subscriber hands out board event feeds for stream clients.
type Subscriber interface {
	Subscribe() (<-chan domain.Event, func())
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store *domain.Store, subs Subscriber, logger *log.Logger) {
	if logger == nil {
		panic("Logger is not initialized")
	}
	gql := &relay.Handler{Schema: NewSchema(store, logger)}
	e.POST("/api/graphql", echo.WrapHandler(gql))
	e.GET("/api/stream", streamEvents(store, subs, logger))
	e.GET("/healthz", healthz(store))
}

type healthResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version"`
}

func healthz(store *domain.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{Status: "ok", Version: store.Version()})
	}
}
