package mapping

import "strings"

// DefaultChunkSize and DefaultChunkOverlap are the Map worker's project
// indexing defaults (spec.md §4.4).
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultExtensionWhitelist is the set of source-file extensions indexed by
// default; callers may supply their own.
var DefaultExtensionWhitelist = map[string]bool{
	".go": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".py": true, ".rb": true, ".java": true, ".md": true, ".json": true,
	".yaml": true, ".yml": true,
}

// Chunk is one overlapping fragment of a file's text, in emission order.
type Chunk struct {
	FilePath string
	Text     string
	Index    int
}

// ChunkText splits text into overlapping chunks of at most chunkSize
// characters; each chunk after the first starts overlap characters before
// the end of the previous one. A candidate chunk boundary that falls in
// the final 30% of the window and lands on a '.' or newline is preferred
// over the hard size cutoff (spec.md §4.4).
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	stride := chunkSize - overlap
	if stride <= 0 {
		stride = chunkSize
	}

	var chunks []string
	n := len(text)
	if n == 0 {
		return nil
	}
	start := 0
	for start < n {
		end := start + chunkSize
		if end > n {
			end = n
		} else {
			end = preferredBoundary(text, start, end, chunkSize)
		}
		chunks = append(chunks, text[start:end])
		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + stride
		}
		start = next
	}
	return chunks
}

// preferredBoundary looks for the last '.' or '\n' within the final 30% of
// [start, hardEnd); if found, truncates there (inclusive), else returns
// hardEnd unchanged.
func preferredBoundary(text string, start, hardEnd, chunkSize int) int {
	windowStart := start + int(float64(chunkSize)*0.7)
	if windowStart >= hardEnd {
		return hardEnd
	}
	window := text[windowStart:hardEnd]
	if idx := strings.LastIndexAny(window, ".\n"); idx >= 0 {
		return windowStart + idx + 1
	}
	return hardEnd
}

// ChunkFile runs ChunkText over one file's body, producing ordered Chunks.
func ChunkFile(path, body string, chunkSize, overlap int) []Chunk {
	pieces := ChunkText(body, chunkSize, overlap)
	out := make([]Chunk, len(pieces))
	for i, p := range pieces {
		out[i] = Chunk{FilePath: path, Text: p, Index: i}
	}
	return out
}

// ChunkProject chunks every whitelisted file in files.
func ChunkProject(files []TrackedFile, whitelist map[string]bool, chunkSize, overlap int) []Chunk {
	var out []Chunk
	for _, f := range files {
		if !hasWhitelistedExt(f.Path, whitelist) {
			continue
		}
		out = append(out, ChunkFile(f.Path, f.Body, chunkSize, overlap)...)
	}
	return out
}

func hasWhitelistedExt(path string, whitelist map[string]bool) bool {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return false
	}
	return whitelist[strings.ToLower(path[dot:])]
}
