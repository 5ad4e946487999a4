package ingest

import "strings"

const (
	defaultChunkWords   = 200
	defaultOverlapWords = 40
)

// chunkText splits text into overlapping word windows. Overlap keeps
// sentences that straddle a boundary retrievable from either side.
func chunkText(text string, chunkWords, overlapWords int) []string {
	if chunkWords <= 0 {
		chunkWords = defaultChunkWords
	}
	if overlapWords <= 0 || overlapWords >= chunkWords {
		overlapWords = defaultOverlapWords
		if overlapWords >= chunkWords {
			overlapWords = chunkWords / 5
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= chunkWords {
		return []string{strings.Join(words, " ")}
	}

	step := chunkWords - overlapWords
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
