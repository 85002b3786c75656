package analyze

// Transcript bounds. The cap is a privacy/cost safety bound on what gets
// sent to the language model, not a correctness limit.
const (
	TranscriptCap = 100000
	ChunkSize     = 30000
	ChunkOverlap  = 500
)

// Chunk splits transcript text into overlapping windows, measured in
// characters. Text at or under size comes back as a single window.
func Chunk(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// Cap truncates text to at most n characters.
func Cap(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
