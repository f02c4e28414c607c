package storage

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"kanban-board/domain"
)

// ErrInvalidSnapshot is returned when persisted data is not a valid board.
var ErrInvalidSnapshot = errors.New("invalid board snapshot")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "kanban://board.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func boardSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// EncodeSnapshot renders snap in the persisted layout: two-space indent and a
// trailing newline. Nil sequences are written as empty arrays.
func EncodeSnapshot(snap domain.Snapshot) ([]byte, error) {
	if snap.Columns == nil {
		snap.Columns = []domain.Column{}
	}
	if snap.Tasks == nil {
		snap.Tasks = []domain.Task{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot validates data against the board schema and decodes it.
// Blank input decodes to an empty board.
func DecodeSnapshot(data []byte) (domain.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptySnapshot(), nil
	}
	sch, err := boardSchema()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("compile board schema: %w", err)
	}
	var doc interface{}
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := sch.Validate(doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var snap domain.Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Columns == nil {
		snap.Columns = []domain.Column{}
	}
	if snap.Tasks == nil {
		snap.Tasks = []domain.Task{}
	}
	return snap, nil
}

func emptySnapshot() domain.Snapshot {
	return domain.Snapshot{Columns: []domain.Column{}, Tasks: []domain.Task{}}
}
