package datashape

import (
	"math/rand"
	"testing"
)

func TestGenerateFixtures_ProducesRequestedRowCount(t *testing.T) {
	schema := Schema{Tables: []Table{{Name: "users", Fields: []Field{
		{Name: "id", Type: FieldUUID}, {Name: "email", Type: FieldEmail},
	}}}}
	fixtures := GenerateFixtures(schema, 5, rand.New(rand.NewSource(1)))
	if len(fixtures["users"]) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(fixtures["users"]))
	}
}

func TestGenerateFixtures_ForeignKeysReferenceGeneratedRows(t *testing.T) {
	schema := Schema{Tables: []Table{
		{Name: "users", Fields: []Field{{Name: "id", Type: FieldUUID}}},
		{Name: "orders", Fields: []Field{{Name: "id", Type: FieldUUID}, {Name: "user_id", Type: FieldForeignKey, RefTable: "users"}}},
	}}
	fixtures := GenerateFixtures(schema, 3, rand.New(rand.NewSource(2)))
	userIDs := map[string]bool{}
	for _, row := range fixtures["users"] {
		userIDs[row["id"].(string)] = true
	}
	for _, row := range fixtures["orders"] {
		if !userIDs[row["user_id"].(string)] {
			t.Fatalf("expected order user_id to reference a generated user, got %v", row["user_id"])
		}
	}
}

func TestCheckReferentialIntegrity_FlagsDanglingReference(t *testing.T) {
	schema := Schema{Tables: []Table{
		{Name: "users", Fields: []Field{{Name: "id", Type: FieldUUID}}},
		{Name: "orders", Fields: []Field{{Name: "id", Type: FieldUUID}, {Name: "user_id", Type: FieldForeignKey, RefTable: "users"}}},
	}}
	fixtures := Fixtures{
		"users":  {{"id": "u1"}},
		"orders": {{"id": "o1", "user_id": "missing"}},
	}
	violations := CheckReferentialIntegrity(fixtures, schema)
	if len(violations) != 1 || violations[0].Value != "missing" {
		t.Fatalf("expected 1 violation for missing user, got %+v", violations)
	}
}

func TestCheckReferentialIntegrity_CleanFixturesNoViolations(t *testing.T) {
	schema := Schema{Tables: []Table{
		{Name: "users", Fields: []Field{{Name: "id", Type: FieldUUID}}},
		{Name: "orders", Fields: []Field{{Name: "id", Type: FieldUUID}, {Name: "user_id", Type: FieldForeignKey, RefTable: "users"}}},
	}}
	fixtures := Fixtures{
		"users":  {{"id": "u1"}},
		"orders": {{"id": "o1", "user_id": "u1"}},
	}
	if violations := CheckReferentialIntegrity(fixtures, schema); len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}
