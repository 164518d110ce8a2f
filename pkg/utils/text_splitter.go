package utils

import "unicode"

// SplitText splits a curriculum passage into chunks of at most
// chunkSize runes with an overlap between neighbours, so retrieval
// never loses the sentence that straddles a boundary. Cuts prefer a
// line or word break near the limit over slicing mid-word.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // overlap >= chunkSize would never advance
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			next = start + step
		}
		start = next
	}

	return chunks
}

// cutPoint walks back from the hard limit looking for a newline, then
// any whitespace, within the last fifth of the window. Past that it
// gives up and cuts at the limit; losing a word beats losing content.
func cutPoint(runes []rune, start, end int) int {
	earliest := end - (end-start)/5

	for i := end; i > earliest; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := end; i > earliest; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
