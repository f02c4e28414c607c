package api

import (
	graphql "github.com/graph-gophers/graphql-go"
	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
)

const boardSchema = `
schema {
  query: Query
  mutation: Mutation
}

type Column {
  id: ID!
  title: String
}

type Task {
  id: ID!
  columnId: String
  content: String
}

type Board {
  columns: [Column!]!
  tasks: [Task!]!
  version: Int!
}

# Every mutation reports its outcome here; a missing entity is a 404, not an error.
type MutationResponse {
  statusCode: Int!
  message: String!
  column: Column
  task: Task
}

type Query {
  columns: [Column!]!
  tasks: [Task!]!
  board: Board!
}

type Mutation {
  addColumn(title: String): MutationResponse!
  updateColumn(id: ID!, title: String): MutationResponse!
  swapColumns(activeColumnId: ID!, overColumnId: ID!): MutationResponse!
  deleteColumn(id: ID!): MutationResponse!
  addTask(columnId: String, content: String): MutationResponse!
  updateTask(id: ID!, content: String): MutationResponse!
  moveTask(activeTaskId: ID!, overTaskId: ID!, columnId: String): MutationResponse!
  deleteTasks(ids: [ID!]!): MutationResponse!
}
`

// NewSchema binds the board GraphQL schema to store. It panics if the
// resolvers do not match the schema.
func NewSchema(store *domain.Store, logger *log.Logger) *graphql.Schema {
	return graphql.MustParseSchema(boardSchema, &resolver{store: store, log: logger})
}
