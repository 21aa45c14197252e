package summarize

import "strings"

// MinChunkWords is the smallest chunk worth summarizing on its own.
const MinChunkWords = 8

// Chunk splits text into windows of at most window words, each starting
// window-overlap words after the previous one. Input that fits in one window is
// returned unchanged. Chunks shorter than MinChunkWords are dropped; if that drops
// everything the whole input is returned.
func Chunk(text string, window, overlap int) []string {
	words := strings.Fields(text)
	if window <= 0 || len(words) <= window {
		return []string{text}
	}
	step := window - overlap
	if step <= 0 {
		step = window
	}

	chunks := make([]string, 0, len(words)/step+1)
	for i := 0; i < len(words); i += step {
		end := min(i+window, len(words))
		if end-i < MinChunkWords {
			continue
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
