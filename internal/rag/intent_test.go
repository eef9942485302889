package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		hasActiveNote bool
		expected      Intent
	}{
		{"transform with active note", "summarize this for me", true, IntentTransform},
		{"rewrite with active note", "please rewrite the intro", true, IntentTransform},
		{"translate with active note", "translate to German", true, IntentTransform},
		{"transform keyword without active note falls through", "summarize this", false, IntentQuery},
		{"create via save", "save this thought", false, IntentCreate},
		{"create via add note", "add note about standups", false, IntentCreate},
		{"search via find", "find my notes on Go", false, IntentSearch},
		{"search via where is", "where is that article?", false, IntentSearch},
		{"time filter via yesterday", "what did I write yesterday", false, IntentTimeFilteredQuery},
		{"time filter via this month", "show me this month", false, IntentTimeFilteredQuery},
		{"default query", "how do goroutines work", false, IntentQuery},
		{"case insensitive", "FIND my notes", false, IntentSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyIntent(tt.message, tt.hasActiveNote))
		})
	}
}

func TestClassifyIntentRuleOrder(t *testing.T) {
	t.Run("transform wins over time keywords with active note", func(t *testing.T) {
		// "summarize" and "yesterday" both match; with an active note the
		// transform rule runs first.
		assert.Equal(t, IntentTransform, ClassifyIntent("summarize what I wrote yesterday", true))
	})

	t.Run("without active note the later rules match in order", func(t *testing.T) {
		assert.Equal(t, IntentTimeFilteredQuery, ClassifyIntent("summarize what I wrote yesterday", false))
	})

	t.Run("create wins over search", func(t *testing.T) {
		assert.Equal(t, IntentCreate, ClassifyIntent("save what you find", false))
	})

	t.Run("search wins over time filter", func(t *testing.T) {
		assert.Equal(t, IntentSearch, ClassifyIntent("find notes from yesterday", false))
	})
}

func TestClassifyIntentNoKeywords(t *testing.T) {
	// Messages with none of the recognized keywords always fall through to
	// query.
	messages := []string{
		"",
		"what is a monad",
		"explain the difference between TCP and UDP",
	}
	for _, msg := range messages {
		assert.Equal(t, IntentQuery, ClassifyIntent(msg, false), "message: %q", msg)
		assert.Equal(t, IntentQuery, ClassifyIntent(msg, true), "message: %q", msg)
	}
}
