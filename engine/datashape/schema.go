// Package datashape generates fixture data from an inferred schema, runs it
// through a PII analyzer+anonymizer, and flags dangling foreign keys
// (spec.md §4.8).
package datashape

import (
	"context"
	"strings"
)

// FieldType is the synthetic value kind a Field's generator produces.
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldInt        FieldType = "int"
	FieldBool       FieldType = "bool"
	FieldEmail      FieldType = "email"
	FieldDateTime   FieldType = "date_time"
	FieldUUID       FieldType = "uuid"
	FieldForeignKey FieldType = "foreign_key"
)

// Field is one column of an inferred Table.
type Field struct {
	Name     string
	Type     FieldType
	RefTable string // set when Type == FieldForeignKey
}

// Table is one inferred entity with its fields, the first of which is
// always its primary key (a FieldUUID).
type Table struct {
	Name   string
	Fields []Field
}

// Schema is the set of Tables a fixture generation pass produces records for.
type Schema struct {
	Tables []Table
}

// SchemaInferrer derives a Schema from free-text report context. A real
// deployment would back this with a model call; the pipeline core only
// depends on the interface (spec.md §9's opaque-transform pattern, same
// seam as engine/transform's extractors).
type SchemaInferrer interface {
	Infer(ctx context.Context, reportContext string) (Schema, error)
}

// entityKeywords maps a context keyword to the Table it implies.
var entityKeywords = []struct {
	keyword string
	table   Table
}{
	{"user", Table{Name: "users", Fields: []Field{
		{Name: "id", Type: FieldUUID},
		{Name: "name", Type: FieldString},
		{Name: "email", Type: FieldEmail},
		{Name: "created_at", Type: FieldDateTime},
	}}},
	{"order", Table{Name: "orders", Fields: []Field{
		{Name: "id", Type: FieldUUID},
		{Name: "user_id", Type: FieldForeignKey, RefTable: "users"},
		{Name: "total_cents", Type: FieldInt},
		{Name: "placed_at", Type: FieldDateTime},
	}}},
	{"product", Table{Name: "products", Fields: []Field{
		{Name: "id", Type: FieldUUID},
		{Name: "name", Type: FieldString},
		{Name: "price_cents", Type: FieldInt},
		{Name: "in_stock", Type: FieldBool},
	}}},
	{"coupon", Table{Name: "coupons", Fields: []Field{
		{Name: "id", Type: FieldUUID},
		{Name: "code", Type: FieldString},
		{Name: "active", Type: FieldBool},
	}}},
}

// defaultTable is used when no keyword in the context matches any known
// entity, so fixture generation always has something to shape.
var defaultTable = Table{Name: "records", Fields: []Field{
	{Name: "id", Type: FieldUUID},
	{Name: "label", Type: FieldString},
	{Name: "created_at", Type: FieldDateTime},
}}

// KeywordSchemaInferrer is the default SchemaInferrer: a fixed keyword-to-
// table lookup over the report context text.
type KeywordSchemaInferrer struct{}

// Infer scans reportContext for known entity keywords, returning every
// matching Table (deduplicated, first-seen order), or defaultTable if none match.
func (KeywordSchemaInferrer) Infer(_ context.Context, reportContext string) (Schema, error) {
	lower := strings.ToLower(reportContext)
	seen := make(map[string]bool)
	var tables []Table
	for _, ek := range entityKeywords {
		if strings.Contains(lower, ek.keyword) && !seen[ek.table.Name] {
			seen[ek.table.Name] = true
			tables = append(tables, ek.table)
		}
	}
	if len(tables) == 0 {
		tables = []Table{defaultTable}
	}
	return Schema{Tables: tables}, nil
}
