package gtranslate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitText splits text into chunks of at most maxChars characters.
// Text is cut at sentence punctuation first and then at word boundaries.
// Chunks containing only punctuation are dropped.
func splitText(text string, maxChars int) []string {
	var chunks []string
	for _, token := range tokenize(text) {
		for _, part := range splitTextOnWords(token, maxChars) {
			part = strings.TrimSpace(part)
			if isPunctuation(part) {
				continue
			}

			// Add new chunk if this is the first one or appending would exceed max.
			n := len(chunks)
			if n == 0 || utf8.RuneCountInString(chunks[n-1])+1+utf8.RuneCountInString(part) > maxChars {
				chunks = append(chunks, part)
				continue
			}

			// Append to last chunk.
			chunks[n-1] = chunks[n-1] + " " + part
		}
	}
	return chunks
}

// tokenize splits text after sentence and clause punctuation.
func tokenize(text string) []string {
	runes := []rune(text)

	var tokens []string
	var start int
	for i := range runes {
		if !isBoundary(runes, i) {
			continue
		}
		tokens = append(tokens, string(runes[start:i+1]))
		start = i + 1
	}
	if start < len(runes) {
		tokens = append(tokens, string(runes[start:]))
	}
	return tokens
}

// isBoundary returns true if a token ends at runes[i].
// Latin punctuation only ends a token when followed by whitespace so that
// numbers such as "3.14" and "1,000" stay intact.
func isBoundary(runes []rune, i int) bool {
	switch runes[i] {
	case '\n', '。', '！', '？', '，', '、', '；', '：', '…':
		return true
	case '.', ',', '!', '?', ';', ':':
		return i == len(runes)-1 || unicode.IsSpace(runes[i+1])
	default:
		return false
	}
}

// splitTextOnWords splits into max length chunks at word boundaries.
// Words longer than maxChars are cut.
func splitTextOnWords(text string, maxChars int) []string {
	if utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var chunk string
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > maxChars {
			if chunk != "" {
				chunks, chunk = append(chunks, chunk), ""
			}
			r := []rune(word)
			chunks, word = append(chunks, string(r[:maxChars])), string(r[maxChars:])
		}

		if word == "" {
			continue
		} else if chunk == "" {
			chunk = word
			continue
		} else if utf8.RuneCountInString(chunk)+1+utf8.RuneCountInString(word) > maxChars {
			chunks, chunk = append(chunks, chunk), word
			continue
		}
		chunk = chunk + " " + word
	}
	if chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// isPunctuation returns true if s has no letters, digits or symbols.
func isPunctuation(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
