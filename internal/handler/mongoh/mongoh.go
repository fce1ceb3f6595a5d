// Package mongoh implements handler.Handler against MongoDB using
// go.mongodb.org/mongo-driver/v2, grounded on goadesign-goa-ai's use of the
// same driver for its own agent-orchestration-to-Mongo path in the example
// corpus.
package mongoh

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
)

// Describe returns the recognised ConnectionConfig fields for mongodb.
func Describe() []handler.FieldSchema {
	return []handler.FieldSchema{
		{Name: "host", Label: "Host", Widget: handler.WidgetText, Required: true},
		{Name: "port", Label: "Port", Widget: handler.WidgetNumber, Required: false},
		{Name: "database", Label: "Database", Widget: handler.WidgetText, Required: true},
		{Name: "connectionString", Label: "Connection string", Widget: handler.WidgetText, Required: false},
		{Name: "username", Label: "Username", Widget: handler.WidgetText, Required: false},
		{Name: "password", Label: "Password", Widget: handler.WidgetPassword, Required: false},
		{Name: "authSource", Label: "Auth source", Widget: handler.WidgetText, Required: false},
	}
}

type mongoHandler struct {
	cfg    handler.ConnectionConfig
	logger *slog.Logger
	client *mongo.Client
	db     *mongo.Database
}

// New constructs a mongoh Handler. It does not connect; Connect does.
func New(cfg handler.ConnectionConfig, logger *slog.Logger) (handler.Handler, error) {
	if cfg.Port == 0 {
		cfg.Port = 27017
	}
	if cfg.AuthSource == "" {
		cfg.AuthSource = "admin"
	}
	return &mongoHandler{cfg: cfg, logger: logger}, nil
}

func (h *mongoHandler) uri() string {
	if h.cfg.ConnectionString != "" {
		return h.cfg.ConnectionString
	}
	if h.cfg.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d/?authSource=%s",
			h.cfg.Username, h.cfg.Password, h.cfg.Host, h.cfg.Port, h.cfg.AuthSource)
	}
	return fmt.Sprintf("mongodb://%s:%d", h.cfg.Host, h.cfg.Port)
}

func (h *mongoHandler) Connect(ctx context.Context) error {
	client, err := mongo.Connect(options.Client().ApplyURI(h.uri()))
	if err != nil {
		return apperrors.NewConnectFailed(err, "mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return apperrors.NewConnectFailed(err, "mongodb")
	}
	h.client = client
	h.db = client.Database(h.cfg.Database)
	return nil
}

func (h *mongoHandler) Disconnect(ctx context.Context) error {
	if h.client == nil {
		return nil
	}
	err := h.client.Disconnect(ctx)
	h.client = nil
	h.db = nil
	return err
}

func (h *mongoHandler) Test(ctx context.Context) handler.TestResult {
	start := time.Now()
	if h.client == nil {
		if err := h.Connect(ctx); err != nil {
			return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
		}
	}
	result := h.db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}})
	var info struct {
		Version string `bson:"version"`
	}
	if err := result.Decode(&info); err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	return handler.TestResult{Success: true, Latency: time.Since(start), Version: info.Version}
}

func (h *mongoHandler) Schema(ctx context.Context, includeColumns bool) (handler.SchemaSnapshot, error) {
	if h.db == nil {
		return handler.SchemaSnapshot{}, apperrors.NewNotConnected(h.cfg.ID)
	}

	names, err := h.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "mongodb")
	}

	var tables []handler.TableDescriptor
	for _, name := range names {
		desc := handler.TableDescriptor{Name: name, SchemaNamespace: h.cfg.Database}
		if includeColumns {
			cols, err := h.sampleColumns(ctx, name)
			if err == nil {
				desc.Columns = cols
			}
		}
		tables = append(tables, desc)
	}
	return handler.SchemaSnapshot{Tables: tables}, nil
}

// sampleColumns infers a flattened column set from one sample document,
// since Mongo collections have no fixed schema.
func (h *mongoHandler) sampleColumns(ctx context.Context, collection string) ([]handler.ColumnDescriptor, error) {
	var doc bson.M
	if err := h.db.Collection(collection).FindOne(ctx, bson.D{}).Decode(&doc); err != nil {
		return nil, err
	}
	flat := flattenDocument(doc, "")
	cols := make([]handler.ColumnDescriptor, 0, len(flat))
	for name := range flat {
		cols = append(cols, handler.ColumnDescriptor{Name: name, TypeString: "mixed", Nullable: true})
	}
	return cols, nil
}

// Execute expects a Structured query ({operation, collection, filter,
// projection, pipeline?}); find and aggregate are supported. Results are
// flattened per spec.md §4.3: top-level scalar fields keep their name,
// nested fields become dotted column names, heterogeneous documents
// produce the union of observed fields with missing cells as null.
func (h *mongoHandler) Execute(ctx context.Context, query handler.Query) (handler.QueryResult, error) {
	if h.db == nil {
		return handler.QueryResult{}, apperrors.NewNotConnected(h.cfg.ID)
	}
	if query.Structured == nil {
		return handler.QueryResult{Success: false, Error: "mongodb handler requires a structured query"}, nil
	}

	start := time.Now()
	sq := query.Structured
	coll := h.db.Collection(sq.Collection)

	var docs []bson.M
	var err error
	switch sq.Operation {
	case "aggregate":
		docs, err = h.aggregate(ctx, coll, sq)
	default:
		docs, err = h.find(ctx, coll, sq)
	}
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}

	result := flattenToResult(docs)
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Success = true
	return result, nil
}

func (h *mongoHandler) find(ctx context.Context, coll *mongo.Collection, sq *handler.StructuredQuery) ([]bson.M, error) {
	filter := bson.M(sq.Filter)
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if len(sq.Projection) > 0 {
		proj := bson.M{}
		for _, p := range sq.Projection {
			proj[p] = 1
		}
		opts.SetProjection(proj)
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (h *mongoHandler) aggregate(ctx context.Context, coll *mongo.Collection, sq *handler.StructuredQuery) ([]bson.M, error) {
	pipeline := make(bson.A, 0, len(sq.Pipeline))
	for _, stage := range sq.Pipeline {
		pipeline = append(pipeline, bson.M(stage))
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// flattenToResult builds the union of flattened fields across all
// documents and fills in null for documents missing a given field.
func flattenToResult(docs []bson.M) handler.QueryResult {
	flatDocs := make([]map[string]handler.Cell, len(docs))
	seen := map[string]bool{}
	var columns []string

	for i, doc := range docs {
		flat := flattenDocument(doc, "")
		flatDocs[i] = flat
		for col := range flat {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	rows := make([]map[string]handler.Cell, len(flatDocs))
	for i, flat := range flatDocs {
		row := make(map[string]handler.Cell, len(columns))
		for _, col := range columns {
			if v, ok := flat[col]; ok {
				row[col] = v
			} else {
				row[col] = nil
			}
		}
		rows[i] = row
	}

	return handler.QueryResult{Columns: columns, Rows: rows, RowCount: len(rows)}
}

// flattenDocument flattens top-level scalar fields directly; nested
// bson.M objects recurse with a dotted prefix at every depth; arrays and
// plain map values are serialised to their JSON string form.
func flattenDocument(doc bson.M, prefix string) map[string]handler.Cell {
	flat := make(map[string]handler.Cell)
	for key, value := range doc {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		switch v := value.(type) {
		case bson.M:
			for k, nested := range flattenDocument(v, name) {
				flat[k] = nested
			}
		default:
			flat[name] = toCell(value)
		}
	}
	return flat
}

func toCell(value any) handler.Cell {
	switch v := value.(type) {
	case bson.A, []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return v
	}
}

func (h *mongoHandler) SupportedOperations() []handler.Operation {
	return []handler.Operation{handler.OpSelect, handler.OpAggregate}
}
