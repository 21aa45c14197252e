// Package text provides word and character counting plus light input normalisation
// shared by the summarization pipeline, the analysis services and the HTTP layer.
package text

import "strings"

// CountRunes counts Unicode characters rather than bytes.
//
//	CountRunes("hello")   // 5
//	CountRunes("日本語")   // 3
func CountRunes(s string) int {
	return len([]rune(s))
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// TruncateRunes returns at most n characters of s without splitting a multi-byte rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
