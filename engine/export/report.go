package export

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONReportRenderer renders the report export type as indented JSON. No
// PDF library appears anywhere in the retrieval pack, so the PDF report
// type is left to a caller-supplied ReportRenderer; this is the default
// used for ExportReport when the caller doesn't supply one.
type JSONReportRenderer struct{}

func (JSONReportRenderer) Render(_ context.Context, reproID string, data any) ([]byte, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: render report for repro %s: %w", reproID, err)
	}
	return out, nil
}
