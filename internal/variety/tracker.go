// Package variety keeps new quotes from repeating old ones. It reads a
// bounded window of the most recently persisted quote texts and exposes
// them as negative examples for the next generation request.
package variety

import (
	"context"
	"fmt"
)

// DefaultLimit is the default size of the recent-quote window.
const DefaultLimit = 20

// Source provides recently persisted quote texts, most recent first.
type Source interface {
	RecentQuoteTexts(ctx context.Context, n int) ([]string, error)
}

// Tracker exposes the recent-quote window as negative examples. It holds
// no state of its own; every call reads from the source, so concurrent
// pipelines always see persisted history.
type Tracker struct {
	src   Source
	limit int
}

// New creates a Tracker over src. A non-positive limit uses DefaultLimit.
func New(src Source, limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Tracker{src: src, limit: limit}
}

// NegativeExamples returns up to the window limit of recent quote texts,
// most recent first. Fewer persisted quotes than the limit returns all of
// them; an empty history returns an empty slice.
func (t *Tracker) NegativeExamples(ctx context.Context) ([]string, error) {
	texts, err := t.src.RecentQuoteTexts(ctx, t.limit)
	if err != nil {
		return nil, fmt.Errorf("recent quotes: %w", err)
	}
	if len(texts) > t.limit {
		texts = texts[:t.limit]
	}
	return texts, nil
}
