package rag

import "strings"

// Intent is the closed set of request intents the pipeline routes on.
type Intent string

const (
	IntentTransform         Intent = "transform"
	IntentCreate            Intent = "create"
	IntentSearch            Intent = "search"
	IntentTimeFilteredQuery Intent = "time_filtered_query"
	IntentQuery             Intent = "query"
)

// Keyword lists are checked in rule order. The rules are not mutually
// exclusive, so the order below is load-bearing and must not be reordered.
var (
	transformKeywords = []string{"summarize", "rewrite", "improve", "shorten", "expand", "translate"}
	createKeywords    = []string{"save", "capture", "remember", "store", "add note"}
	searchKeywords    = []string{"find", "search", "look for", "where is"}
	timeKeywords      = []string{"today", "yesterday", "this week", "last week", "this month", "recent"}
)

// ClassifyIntent maps a raw user message to an intent. Transform only applies
// when a note is in focus; a transform keyword without an active note falls
// through to the later rules.
func ClassifyIntent(message string, hasActiveNote bool) Intent {
	lower := strings.ToLower(message)

	if hasActiveNote && containsAny(lower, transformKeywords) {
		return IntentTransform
	}
	if containsAny(lower, createKeywords) {
		return IntentCreate
	}
	if containsAny(lower, searchKeywords) {
		return IntentSearch
	}
	if containsAny(lower, timeKeywords) {
		return IntentTimeFilteredQuery
	}
	return IntentQuery
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
