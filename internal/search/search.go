// Package search turns a free-text query into a full-text MATCH expression.
package search

import (
	"sort"
	"strings"
)

// stopWordList holds words dropped from queries before they reach the index
var stopWordList = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with", "this", "have", "but", "not",
	"they", "his", "her", "she", "him", "you", "your", "yours", "me",
	"my", "i", "we", "our", "ours", "had", "been", "do", "does", "did",
	"doing", "am", "all", "any", "more", "most", "other", "some", "such",
	"no", "nor", "only", "own", "same", "so", "than", "too", "very",
	"can", "just", "don", "should", "now", "linkedin", "instagram",
	"facebook", "join", "us",
}

var stopWords = func() map[string]struct{} {
	m := make(map[string]struct{}, len(stopWordList))
	for _, w := range stopWordList {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopWord reports whether word is ignored in queries, case-insensitively.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

// StopWords returns the stop-word list sorted.
func StopWords() []string {
	words := append([]string(nil), stopWordList...)
	sort.Strings(words)
	return words
}

// FilterStopWords splits the query on whitespace and drops stop words,
// keeping the remaining words in order and in their original case.
func FilterStopWords(query string) []string {
	var terms []string
	for _, w := range strings.Fields(query) {
		if !IsStopWord(w) {
			terms = append(terms, w)
		}
	}
	return terms
}

// BuildMatchQuery returns an FTS5 MATCH expression requiring every
// non-stop-word term. Each term is quoted so punctuation in user input is
// never parsed as query syntax. An empty result means nothing is left to
// search for.
func BuildMatchQuery(query string) string {
	terms := FilterStopWords(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		if strings.Trim(t, `"`) == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " ")
}
