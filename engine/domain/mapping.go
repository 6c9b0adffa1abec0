package domain

// Mapping is a repository-analysis record produced by the Map worker.
// Written once (spec.md §3).
type Mapping struct {
	ID                string             `json:"mapping_id" db:"id"`
	ProjectID         string             `json:"project_id" db:"project_id"`
	ReportID          string             `json:"report_id" db:"report_id"`
	FrameworkScores   map[string]float64 `json:"framework_scores" db:"framework_scores"`
	ModuleSuggestions []ModuleSuggestion `json:"module_suggestions" db:"module_suggestions"`
	DocResults        []DocResult        `json:"doc_results" db:"doc_results"`
	ConfidenceScore   float64            `json:"confidence_score" db:"confidence_score"`
}

// ModuleSuggestion is one ranked candidate module path.
type ModuleSuggestion struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// DocResult is one ranked document chunk returned from similarity search.
type DocResult struct {
	ChunkID    string  `json:"chunk_id"`
	FilePath   string  `json:"file_path"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// DocChunk is an indexed fragment of a project's text corpus. Consecutive
// chunks share the configured overlap, so any substring of length <=
// overlap appears wholly in at least one chunk.
type DocChunk struct {
	ID        string            `json:"id" db:"id"`
	ProjectID string            `json:"project_id" db:"project_id"`
	FilePath  string            `json:"file_path" db:"file_path"`
	Text      string            `json:"chunk_text" db:"chunk_text"`
	Index     int               `json:"chunk_index" db:"chunk_index"`
	Embedding []float32          `json:"embedding,omitempty" db:"-"`
	Meta      map[string]string `json:"meta,omitempty" db:"meta"`
}
