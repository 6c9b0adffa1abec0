package datashape

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Row is one generated fixture record, keyed by field name.
type Row map[string]any

// Fixtures is the generated data for every table in a Schema, keyed by
// table name.
type Fixtures map[string][]Row

// GenerateFixtures produces recordCount rows for every table in schema. No
// third-party fixture-data faker library appears anywhere in the retrieval
// pack, so values are synthesized directly from math/rand per FieldType.
// Foreign keys are filled by sampling an id already generated for the
// referenced table. When the referenced table has no rows yet (it is absent
// from schema or listed after the referencing table), a fresh UUID is used
// instead and the reference dangles; CheckReferentialIntegrity flags those.
func GenerateFixtures(schema Schema, recordCount int, rng *rand.Rand) Fixtures {
	if recordCount <= 0 {
		recordCount = 10
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	out := make(Fixtures, len(schema.Tables))
	ids := make(map[string][]string, len(schema.Tables))

	for _, table := range schema.Tables {
		rows := make([]Row, recordCount)
		for i := 0; i < recordCount; i++ {
			row := make(Row, len(table.Fields))
			for _, f := range table.Fields {
				row[f.Name] = generateValue(f, i, rng, ids)
			}
			rows[i] = row
			if pk, ok := row["id"].(string); ok {
				ids[table.Name] = append(ids[table.Name], pk)
			}
		}
		out[table.Name] = rows
	}
	return out
}

func generateValue(f Field, index int, rng *rand.Rand, ids map[string][]string) any {
	switch f.Type {
	case FieldUUID:
		return uuid.NewString()
	case FieldString:
		return fmt.Sprintf("%s-%d", f.Name, index)
	case FieldEmail:
		return fmt.Sprintf("user%d@example.test", index)
	case FieldInt:
		return rng.Intn(10000)
	case FieldBool:
		return rng.Intn(2) == 0
	case FieldDateTime:
		return time.Unix(1700000000+int64(index*3600), 0).UTC().Format(time.RFC3339)
	case FieldForeignKey:
		refIDs := ids[f.RefTable]
		if len(refIDs) == 0 {
			return uuid.NewString() // no referenced rows yet: intentionally dangling
		}
		return refIDs[rng.Intn(len(refIDs))]
	default:
		return nil
	}
}
