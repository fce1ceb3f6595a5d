package handler

import "time"

// Kind identifies a supported (or merely describable) backend kind.
type Kind string

const (
	KindMySQL      Kind = "mysql"
	KindPostgreSQL Kind = "postgresql"
	KindMongoDB    Kind = "mongodb"
	KindSQLite     Kind = "sqlite"
	KindKOSISAPI   Kind = "kosis_api"
	KindExternalAPI Kind = "external_api"

	// Described but not installed: make() on these fails with
	// apperrors.NewUnsupportedKind until a handler is wired up.
	KindRedis  Kind = "redis"
	KindOracle Kind = "oracle"
	KindMSSQL  Kind = "mssql"
)

// Widget is the input control a ConnectionConfig field is edited with.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetNumber   Widget = "number"
	WidgetPassword Widget = "password"
	WidgetBool     Widget = "bool"
	WidgetSelect   Widget = "select"
	WidgetTextarea Widget = "textarea"
)

// FieldSchema describes one recognised ConnectionConfig field for a kind,
// as surfaced to a connection-setup UI.
type FieldSchema struct {
	Name     string
	Label    string
	Widget   Widget
	Required bool
	Validate func(value string) error
	Options  []string // populated for WidgetSelect
}

// ConnectionConfig is the immutable record describing how to reach one
// backend. Not every field applies to every Kind; see each subpackage's
// describe() output for which fields it requires.
type ConnectionConfig struct {
	ID   string
	Name string
	Kind Kind

	// Relational / document fields.
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSL      bool
	Schema   string

	// Document store.
	ConnectionString string
	AuthSource       string

	// Embedded file store.
	FilePath string
	Mode     string // readonly | readwrite | readwritecreate

	// API-as-table.
	BaseURL string
	APIKey  string

	// VirtualTables declares the external_api handler's table->endpoint
	// map; unused by other kinds.
	VirtualTables map[string]VirtualTableSpec
}

// VirtualTableSpec maps a virtual table name to the REST endpoint and
// parameter translation an APIHandler uses to serve it.
type VirtualTableSpec struct {
	Endpoint      string
	Method        string
	ParamMapping  map[string]string // query field -> request parameter name
	DefaultParams map[string]string
}

// Operation is one of the verbs a Handler may support.
type Operation string

const (
	OpSelect    Operation = "SELECT"
	OpInsert    Operation = "INSERT"
	OpUpdate    Operation = "UPDATE"
	OpDelete    Operation = "DELETE"
	OpAggregate Operation = "AGGREGATE"
)

// Cell is the value stored in one QueryResult row/column position.
type Cell = any

// QueryResult is a tabular value returned by a Handler's Execute call, or
// by the workspace's SQL executor.
type QueryResult struct {
	Success          bool
	Columns          []string
	Rows             []map[string]Cell
	RowCount         int
	ExecutionTimeMs  int64
	Error            string
}

// ColumnDescriptor describes one column of a TableDescriptor.
type ColumnDescriptor struct {
	Name       string
	TypeString string
	Nullable   bool
	PrimaryKey bool
}

// TableDescriptor describes one table/collection/virtual-table of a
// SchemaSnapshot.
type TableDescriptor struct {
	Name             string
	SchemaNamespace  string
	Columns          []ColumnDescriptor
	RowCountEstimate *int64
}

// SchemaSnapshot is the ordered set of tables a connection exposes.
type SchemaSnapshot struct {
	Tables []TableDescriptor
}

// TestResult reports the outcome of a handler's cheap round-trip check.
type TestResult struct {
	Success bool
	Latency time.Duration
	Version string
	Error   string
}

// Query is the argument to Handler.Execute. Exactly one of SQL or
// Structured is populated, depending on the backend kind: relational and
// embedded-file kinds consume SQL text; the document handler consumes a
// Structured query; API handlers accept either SQL-like text or a
// Structured query.
type Query struct {
	SQL        string
	Params     []any
	Structured *StructuredQuery
}

// StructuredQuery is the non-SQL query shape the document handler and API
// handlers accept: an operation name, a target collection/virtual-table,
// an equality-predicate filter, an optional column projection, and
// (mongodb only) an aggregation pipeline.
type StructuredQuery struct {
	Operation  string
	Collection string
	Filter     map[string]any
	Projection []string
	Pipeline   []map[string]any
}
