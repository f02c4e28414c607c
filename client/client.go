// Package client talks to the board API over GraphQL.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

// Client wraps http.Client with the board's GraphQL operations.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a new Client.
func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{Timeout: 15 * time.Second}}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

// GraphQLError reports errors returned in a GraphQL response body.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := sonic.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/graphql", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql: unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError       `json:"errors"`
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		return &GraphQLError{Messages: msgs}
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	return sonic.Unmarshal(envelope.Data, out)
}

type column struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
}

type task struct {
	ID       string  `json:"id"`
	ColumnID *string `json:"columnId"`
	Content  *string `json:"content"`
}

type mutationResponse struct {
	StatusCode int     `json:"statusCode"`
	Message    string  `json:"message"`
	Column     *column `json:"column"`
	Task       *task   `json:"task"`
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r mutationResponse) result() domain.Result {
	res := domain.Result{StatusCode: r.StatusCode, Message: r.Message}
	if r.Column != nil {
		res.Column = &domain.Column{ID: r.Column.ID, Title: str(r.Column.Title)}
	}
	if r.Task != nil {
		res.Task = &domain.Task{ID: r.Task.ID, ColumnID: str(r.Task.ColumnID), Content: str(r.Task.Content)}
	}
	return res
}

const boardQuery = `query Board { board { version columns { id title } tasks { id columnId content } } }`

// Board fetches the full snapshot and its version.
func (c *Client) Board(ctx context.Context) (domain.Snapshot, uint64, error) {
	var out struct {
		Board struct {
			Version int64    `json:"version"`
			Columns []column `json:"columns"`
			Tasks   []task   `json:"tasks"`
		} `json:"board"`
	}
	if err := c.do(ctx, boardQuery, nil, &out); err != nil {
		return domain.Snapshot{}, 0, err
	}
	snap := domain.Snapshot{
		Columns: make([]domain.Column, 0, len(out.Board.Columns)),
		Tasks:   make([]domain.Task, 0, len(out.Board.Tasks)),
	}
	for _, col := range out.Board.Columns {
		snap.Columns = append(snap.Columns, domain.Column{ID: col.ID, Title: str(col.Title)})
	}
	for _, t := range out.Board.Tasks {
		snap.Tasks = append(snap.Tasks, domain.Task{ID: t.ID, ColumnID: str(t.ColumnID), Content: str(t.Content)})
	}
	return snap, uint64(out.Board.Version), nil
}

const responseFields = `statusCode message column { id title } task { id columnId content }`

func (c *Client) mutate(ctx context.Context, name, params, args string, vars map[string]any) (domain.Result, error) {
	query := fmt.Sprintf("mutation(%s) { %s(%s) { %s } }", params, name, args, responseFields)
	var out map[string]mutationResponse
	if err := c.do(ctx, query, vars, &out); err != nil {
		return domain.Result{}, err
	}
	resp, ok := out[name]
	if !ok {
		return domain.Result{}, errors.New("graphql: empty mutation response")
	}
	return resp.result(), nil
}

func (c *Client) AddColumn(ctx context.Context, title string) (domain.Result, error) {
	return c.mutate(ctx, "addColumn", "$title: String", "title: $title", map[string]any{"title": title})
}

func (c *Client) UpdateColumn(ctx context.Context, id string, title *string) (domain.Result, error) {
	return c.mutate(ctx, "updateColumn", "$id: ID!, $title: String", "id: $id, title: $title",
		map[string]any{"id": id, "title": title})
}

func (c *Client) SwapColumns(ctx context.Context, activeID, overID string) (domain.Result, error) {
	return c.mutate(ctx, "swapColumns", "$a: ID!, $o: ID!", "activeColumnId: $a, overColumnId: $o",
		map[string]any{"a": activeID, "o": overID})
}

func (c *Client) DeleteColumn(ctx context.Context, id string) (domain.Result, error) {
	return c.mutate(ctx, "deleteColumn", "$id: ID!", "id: $id", map[string]any{"id": id})
}

func (c *Client) AddTask(ctx context.Context, columnID, content string) (domain.Result, error) {
	return c.mutate(ctx, "addTask", "$c: String, $x: String", "columnId: $c, content: $x",
		map[string]any{"c": columnID, "x": content})
}

func (c *Client) UpdateTask(ctx context.Context, id string, content *string) (domain.Result, error) {
	return c.mutate(ctx, "updateTask", "$id: ID!, $x: String", "id: $id, content: $x",
		map[string]any{"id": id, "x": content})
}

func (c *Client) MoveTask(ctx context.Context, activeID, overID, columnID string) (domain.Result, error) {
	vars := map[string]any{"a": activeID, "o": overID, "c": nil}
	if columnID != "" {
		vars["c"] = columnID
	}
	return c.mutate(ctx, "moveTask", "$a: ID!, $o: ID!, $c: String", "activeTaskId: $a, overTaskId: $o, columnId: $c", vars)
}

func (c *Client) DeleteTasks(ctx context.Context, ids []string) (domain.Result, error) {
	if ids == nil {
		ids = []string{}
	}
	return c.mutate(ctx, "deleteTasks", "$ids: [ID!]!", "ids: $ids", map[string]any{"ids": ids})
}

// Watch reads the event stream and calls fn for every event until ctx is
// done or the connection drops.
func (c *Client) Watch(ctx context.Context, fn func(domain.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	// The stream is long-lived; the request timeout does not apply.
	hc := &http.Client{Transport: c.HTTP.Transport}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: unexpected status %d", resp.StatusCode)
	}
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.Event
		if err := sonic.UnmarshalString(strings.TrimPrefix(line, "data: "), &ev); err != nil {
			continue
		}
		fn(ev)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return errors.New("stream closed")
}
