package api

import (
	"context"
	"errors"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
)

// errInternal is what GraphQL clients see for storage failures; the cause is
// logged.
var errInternal = errors.New("internal server error")

type resolver struct {
	store *domain.Store
	log   *log.Logger
}

type columnResolver struct{ c domain.Column }

func (r *columnResolver) ID() graphql.ID  { return graphql.ID(r.c.ID) }
func (r *columnResolver) Title() *string { return &r.c.Title }

type taskResolver struct{ t domain.Task }

func (r *taskResolver) ID() graphql.ID     { return graphql.ID(r.t.ID) }
func (r *taskResolver) ColumnID() *string { return &r.t.ColumnID }
func (r *taskResolver) Content() *string  { return &r.t.Content }

type boardResolver struct {
	snap    domain.Snapshot
	version uint64
}

func (r *boardResolver) Columns() []*columnResolver { return columnResolvers(r.snap.Columns) }
func (r *boardResolver) Tasks() []*taskResolver     { return taskResolvers(r.snap.Tasks) }
func (r *boardResolver) Version() int32             { return int32(r.version) }

type mutationResponse struct{ res domain.Result }

func (r *mutationResponse) StatusCode() int32 { return int32(r.res.StatusCode) }
func (r *mutationResponse) Message() string   { return r.res.Message }

func (r *mutationResponse) Column() *columnResolver {
	if r.res.Column == nil {
		return nil
	}
	return &columnResolver{c: *r.res.Column}
}

func (r *mutationResponse) Task() *taskResolver {
	if r.res.Task == nil {
		return nil
	}
	return &taskResolver{t: *r.res.Task}
}

func columnResolvers(cols []domain.Column) []*columnResolver {
	out := make([]*columnResolver, len(cols))
	for i := range cols {
		out[i] = &columnResolver{c: cols[i]}
	}
	return out
}

func taskResolvers(tasks []domain.Task) []*taskResolver {
	out := make([]*taskResolver, len(tasks))
	for i := range tasks {
		out[i] = &taskResolver{t: tasks[i]}
	}
	return out
}

func (r *resolver) Columns(ctx context.Context) []*columnResolver {
	m, _ := newOperationMetrics(ctx, r.log, "columns")
	snap, version := r.store.Board()
	m.SetVersion(version)
	m.SetCount(len(snap.Columns))
	m.Log(http.StatusOK, nil)
	return columnResolvers(snap.Columns)
}

func (r *resolver) Tasks(ctx context.Context) []*taskResolver {
	m, _ := newOperationMetrics(ctx, r.log, "tasks")
	snap, version := r.store.Board()
	m.SetVersion(version)
	m.SetCount(len(snap.Tasks))
	m.Log(http.StatusOK, nil)
	return taskResolvers(snap.Tasks)
}

func (r *resolver) Board(ctx context.Context) *boardResolver {
	m, _ := newOperationMetrics(ctx, r.log, "board")
	snap, version := r.store.Board()
	m.SetVersion(version)
	m.SetCount(len(snap.Columns) + len(snap.Tasks))
	m.Log(http.StatusOK, nil)
	return &boardResolver{snap: snap, version: version}
}

// run wraps a Store mutation with metrics and hides storage errors.
func (r *resolver) run(ctx context.Context, operation string, fn func(context.Context) (domain.Result, error)) (*mutationResponse, error) {
	m, ctx := newOperationMetrics(ctx, r.log, operation)
	res, err := fn(ctx)
	m.SetVersion(r.store.Version())
	m.Log(res.StatusCode, err)
	if err != nil {
		return nil, errInternal
	}
	return &mutationResponse{res: res}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *resolver) AddColumn(ctx context.Context, args struct{ Title *string }) (*mutationResponse, error) {
	return r.run(ctx, "addColumn", func(ctx context.Context) (domain.Result, error) {
		return r.store.AddColumn(ctx, deref(args.Title))
	})
}

func (r *resolver) UpdateColumn(ctx context.Context, args struct {
	ID    graphql.ID
	Title *string
}) (*mutationResponse, error) {
	return r.run(ctx, "updateColumn", func(ctx context.Context) (domain.Result, error) {
		return r.store.UpdateColumn(ctx, string(args.ID), args.Title)
	})
}

func (r *resolver) SwapColumns(ctx context.Context, args struct {
	ActiveColumnID graphql.ID
	OverColumnID   graphql.ID
}) (*mutationResponse, error) {
	return r.run(ctx, "swapColumns", func(ctx context.Context) (domain.Result, error) {
		return r.store.SwapColumns(ctx, string(args.ActiveColumnID), string(args.OverColumnID))
	})
}

func (r *resolver) DeleteColumn(ctx context.Context, args struct{ ID graphql.ID }) (*mutationResponse, error) {
	return r.run(ctx, "deleteColumn", func(ctx context.Context) (domain.Result, error) {
		return r.store.DeleteColumn(ctx, string(args.ID))
	})
}

func (r *resolver) AddTask(ctx context.Context, args struct {
	ColumnID *string
	Content  *string
}) (*mutationResponse, error) {
	return r.run(ctx, "addTask", func(ctx context.Context) (domain.Result, error) {
		return r.store.AddTask(ctx, deref(args.ColumnID), deref(args.Content))
	})
}

func (r *resolver) UpdateTask(ctx context.Context, args struct {
	ID      graphql.ID
	Content *string
}) (*mutationResponse, error) {
	return r.run(ctx, "updateTask", func(ctx context.Context) (domain.Result, error) {
		return r.store.UpdateTask(ctx, string(args.ID), args.Content)
	})
}

func (r *resolver) MoveTask(ctx context.Context, args struct {
	ActiveTaskID graphql.ID
	OverTaskID   graphql.ID
	ColumnID     *string
}) (*mutationResponse, error) {
	return r.run(ctx, "moveTask", func(ctx context.Context) (domain.Result, error) {
		return r.store.MoveTask(ctx, string(args.ActiveTaskID), string(args.OverTaskID), deref(args.ColumnID))
	})
}

func (r *resolver) DeleteTasks(ctx context.Context, args struct{ IDs []graphql.ID }) (*mutationResponse, error) {
	ids := make([]string, len(args.IDs))
	for i, id := range args.IDs {
		ids[i] = string(id)
	}
	return r.run(ctx, "deleteTasks", func(ctx context.Context) (domain.Result, error) {
		return r.store.DeleteTasks(ctx, ids)
	})
}
