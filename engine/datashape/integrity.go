package datashape

import "fmt"

// Violation is one dangling foreign-key reference found by
// CheckReferentialIntegrity.
type Violation struct {
	Table    string
	Field    string
	RowIndex int
	Value    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s.%s[%d]=%q has no matching row", v.Table, v.Field, v.RowIndex, v.Value)
}

// CheckReferentialIntegrity flags every foreign-key field value whose
// referenced table lacks a row with that id (spec.md §4.8).
func CheckReferentialIntegrity(fixtures Fixtures, schema Schema) []Violation {
	idsByTable := make(map[string]map[string]bool, len(fixtures))
	for table, rows := range fixtures {
		set := make(map[string]bool, len(rows))
		for _, row := range rows {
			if id, ok := row["id"].(string); ok {
				set[id] = true
			}
		}
		idsByTable[table] = set
	}

	var violations []Violation
	for _, table := range schema.Tables {
		for _, f := range table.Fields {
			if f.Type != FieldForeignKey {
				continue
			}
			refIDs := idsByTable[f.RefTable]
			for i, row := range fixtures[table.Name] {
				val, _ := row[f.Name].(string)
				if val == "" || refIDs[val] {
					continue
				}
				violations = append(violations, Violation{Table: table.Name, Field: f.Name, RowIndex: i, Value: val})
			}
		}
	}
	return violations
}
