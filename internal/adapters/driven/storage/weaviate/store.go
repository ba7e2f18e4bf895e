// Package weaviate provides a vector store backed by a Weaviate server.
//
// Each collection maps to a Weaviate class with no vectorizer; vectors are
// supplied by the embedding service. Metadata properties use field
// tokenization so that filters compare whole values.
package weaviate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const (
	propRecordID = "record_id"
	propText     = "text"

	// pageSize is the number of objects fetched per metadata page.
	pageSize = 500
)

// recordNamespace seeds the deterministic object UUIDs.
var recordNamespace = uuid.MustParse("5b0c84a4-8f52-4b8e-9d3a-1c1f0f6d2e57")

// Config holds connection settings.
type Config struct {
	Host   string
	Scheme string
	APIKey string
}

// Store implements driven.VectorStore over one Weaviate class.
type Store struct {
	client    *weaviate.Client
	className string

	mu         sync.Mutex
	dimensions int
}

// New connects to Weaviate and ensures the class for collection exists.
// dimensions is checked client side, zero adopts the first batch written.
func New(ctx context.Context, cfg Config, collection string, dimensions int) (*Store, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := strings.TrimPrefix(strings.TrimPrefix(cfg.Host, "https://"), "http://")
	clientCfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		clientCfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: creating weaviate client: %v", domain.ErrVectorStoreUnavailable, err)
	}

	s := &Store{
		client:     client,
		className:  ClassName(collection),
		dimensions: dimensions,
	}
	if err := s.ensureClass(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ClassName converts a collection name into a Weaviate class name, which
// must start with an upper-case letter.
func ClassName(collection string) string {
	if collection == "" {
		return ""
	}
	return strings.ToUpper(collection[:1]) + collection[1:]
}

func (s *Store) ensureClass(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading schema: %v", domain.ErrVectorStoreUnavailable, err)
	}
	for _, class := range schema.Classes {
		if class.Class == s.className {
			logger.Debug("weaviate: class %s exists", s.className)
			return nil
		}
	}

	if err := s.client.Schema().ClassCreator().WithClass(classDefinition(s.className)).Do(ctx); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("%w: creating class %s: %v", domain.ErrVectorStoreUnavailable, s.className, err)
	}
	logger.Info("weaviate: created class %s", s.className)
	return nil
}

func classDefinition(className string) *models.Class {
	props := []*models.Property{
		{Name: propRecordID, DataType: []string{"text"}, Tokenization: models.PropertyTokenizationField},
		{Name: propText, DataType: []string{"text"}},
	}
	for _, field := range domain.MetadataFields {
		if domain.IsNumericField(field) {
			props = append(props, &models.Property{Name: field, DataType: []string{"int"}})
			continue
		}
		props = append(props, &models.Property{
			Name:         field,
			DataType:     []string{"text"},
			Tokenization: models.PropertyTokenizationField,
		})
	}
	return &models.Class{
		Class:           className,
		Description:     "Docia document chunks",
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: props,
	}
}

// ObjectID maps a record ID to its deterministic Weaviate object UUID, so
// that writing a record twice replaces it.
func ObjectID(recordID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(recordNamespace, []byte(recordID)).String())
}

// UpsertBatch writes records with the batch API.
func (s *Store) UpsertBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.checkDimensions(records); err != nil {
		return err
	}

	objects := make([]*models.Object, len(records))
	for i, r := range records {
		objects[i] = &models.Object{
			Class:      s.className,
			ID:         ObjectID(r.ID),
			Properties: properties(r),
			Vector:     r.Embedding,
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: batch insert: %v", domain.ErrVectorStoreUnavailable, err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("%w: batch insert: %s", domain.ErrVectorStoreUnavailable, obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func (s *Store) checkDimensions(records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dimensions
	if dims == 0 {
		dims = len(records[0].Embedding)
	}
	for _, r := range records {
		if len(r.Embedding) != dims || dims == 0 {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), dims)
		}
	}
	s.dimensions = dims
	return nil
}

// Query runs a near-vector search restricted by the filter.
func (s *Store) Query(
	ctx context.Context,
	embedding []float32,
	k int,
	filter domain.Filter,
) ([]domain.ScoredRecord, error) {
	if k <= 0 {
		return []domain.ScoredRecord{}, nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	dims := s.dimensions
	s.mu.Unlock()
	if dims > 0 && len(embedding) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(embedding), dims)
	}

	get := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(resultFields(true)...).
		WithNearVector(s.client.GraphQL().NearVectorArgBuilder().WithVector(embedding)).
		WithLimit(k)
	if where := whereFilter(filter); where != nil {
		get = get.WithWhere(where)
	}

	resp, err := get.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: query: %s", domain.ErrVectorStoreUnavailable, resp.Errors[0].Message)
	}

	out := []domain.ScoredRecord{}
	for _, obj := range getObjects(resp.Data, s.className) {
		out = append(out, scoredRecord(obj))
	}
	return out, nil
}

// GetAllMetadata walks the whole class with the cursor API and keeps the
// objects matching the filter. Offset paging fails once offset plus limit
// passes QUERY_MAXIMUM_RESULTS, and the cursor cannot be combined with a
// where clause, so the filter is applied here.
func (s *Store) GetAllMetadata(ctx context.Context, filter domain.Filter) ([]domain.RecordMetadata, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	out := []domain.RecordMetadata{}
	after := ""
	for {
		get := s.client.GraphQL().Get().
			WithClassName(s.className).
			WithFields(scanFields()...).
			WithLimit(pageSize)
		if after != "" {
			get = get.WithAfter(after)
		}

		resp, err := get.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: listing metadata: %v", domain.ErrVectorStoreUnavailable, err)
		}
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("%w: listing metadata: %s", domain.ErrVectorStoreUnavailable, resp.Errors[0].Message)
		}

		objects := getObjects(resp.Data, s.className)
		for _, obj := range objects {
			if meta := parseMetadata(obj); filter.Matches(meta) {
				out = append(out, meta)
			}
		}
		if len(objects) < pageSize {
			return out, nil
		}

		next := objectUUID(objects[len(objects)-1])
		if next == "" || next == after {
			return nil, fmt.Errorf("%w: listing metadata: cursor did not advance past %q",
				domain.ErrVectorStoreUnavailable, after)
		}
		after = next
	}
}

// DeleteBy removes every object matching the filter using batch delete.
func (s *Store) DeleteBy(ctx context.Context, filter domain.Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	where := whereFilter(filter)
	if where == nil {
		where = matchAll()
	}

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.className).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: batch delete: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if resp == nil || resp.Results == nil {
		return 0, nil
	}
	if resp.Results.Failed > 0 {
		logger.Warn("weaviate: %d objects failed to delete", resp.Results.Failed)
	}
	return int(resp.Results.Successful), nil
}

// Count returns the number of objects in the class.
func (s *Store) Count(ctx context.Context) (int, error) {
	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrVectorStoreUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		return 0, fmt.Errorf("%w: count: %s", domain.ErrVectorStoreUnavailable, resp.Errors[0].Message)
	}
	return aggregateCount(resp.Data, s.className), nil
}

// Close is a no-op; the client holds no persistent connection.
func (s *Store) Close() error {
	return nil
}

// ==================== Conversion Helpers ====================

func properties(r domain.Record) map[string]interface{} {
	m := r.Metadata
	return map[string]interface{}{
		propRecordID:           r.ID,
		propText:               r.Text,
		domain.FieldDocID:      m.DocID,
		domain.FieldTitle:      m.Title,
		domain.FieldType:       m.Type,
		domain.FieldSpecialty:  m.Specialty,
		domain.FieldYear:       m.Year,
		domain.FieldPage:       m.Page,
		domain.FieldSection:    m.Section,
		domain.FieldTokenCount: m.TokenCount,
		domain.FieldUploadDate: domain.FormatUploadDate(m.UploadDate),
		domain.FieldUploadedBy: m.UploadedBy,
	}
}

// whereFilter converts a filter into an AND of equality operands, or nil
// for an empty filter.
func whereFilter(filter domain.Filter) *filters.WhereBuilder {
	if len(filter) == 0 {
		return nil
	}
	operands := make([]*filters.WhereBuilder, 0, len(filter))
	for _, key := range filter.Keys() {
		operand := filters.Where().
			WithPath([]string{key}).
			WithOperator(filters.Equal)
		if domain.IsNumericField(key) {
			n, _ := strconv.ParseInt(filter[key], 10, 64) // validated by caller
			operand = operand.WithValueInt(n)
		} else {
			operand = operand.WithValueText(filter[key])
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func matchAll() *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{propRecordID}).
		WithOperator(filters.Like).
		WithValueText("*")
}

func resultFields(withDistance bool) []graphql.Field {
	fields := []graphql.Field{{Name: propRecordID}}
	if withDistance {
		fields = append(fields, graphql.Field{Name: propText})
	}
	for _, f := range domain.MetadataFields {
		fields = append(fields, graphql.Field{Name: f})
	}
	if withDistance {
		fields = append(fields, graphql.Field{
			Name:   "_additional",
			Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}},
		})
	}
	return fields
}

// scanFields are the metadata fields plus the object UUID the cursor
// resumes from.
func scanFields() []graphql.Field {
	return append(resultFields(false), graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "id"}},
	})
}

func objectUUID(obj map[string]interface{}) string {
	additional, _ := obj["_additional"].(map[string]interface{})
	return asString(additional["id"])
}

// getObjects extracts Get.<class> from a GraphQL response payload.
func getObjects(data map[string]models.JSONObject, className string) []map[string]interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := get[className].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}

func aggregateCount(data map[string]models.JSONObject, className string) int {
	agg, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	items, ok := agg[className].([]interface{})
	if !ok || len(items) == 0 {
		return 0
	}
	first, _ := items[0].(map[string]interface{})
	meta, _ := first["meta"].(map[string]interface{})
	return asInt(meta["count"])
}

func scoredRecord(obj map[string]interface{}) domain.ScoredRecord {
	rec := domain.ScoredRecord{
		ID:       asString(obj[propRecordID]),
		Text:     asString(obj[propText]),
		Metadata: parseMetadata(obj),
	}
	if additional, ok := obj["_additional"].(map[string]interface{}); ok {
		if d, ok := additional["distance"].(float64); ok {
			rec.Distance = d
		}
		if rec.ID == "" {
			rec.ID = asString(additional["id"])
		}
	}
	return rec
}

func parseMetadata(obj map[string]interface{}) domain.RecordMetadata {
	uploadDate, err := domain.ParseUploadDate(asString(obj[domain.FieldUploadDate]))
	if err != nil {
		logger.Debug("weaviate: unparseable upload_date %v", obj[domain.FieldUploadDate])
	}
	return domain.RecordMetadata{
		DocID:      asString(obj[domain.FieldDocID]),
		Title:      asString(obj[domain.FieldTitle]),
		Type:       asString(obj[domain.FieldType]),
		Specialty:  asString(obj[domain.FieldSpecialty]),
		Year:       asInt(obj[domain.FieldYear]),
		Page:       asInt(obj[domain.FieldPage]),
		Section:    asString(obj[domain.FieldSection]),
		TokenCount: asInt(obj[domain.FieldTokenCount]),
		UploadDate: uploadDate,
		UploadedBy: asString(obj[domain.FieldUploadedBy]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
