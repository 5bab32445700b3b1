package outbound

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultDebounceWindow suppresses an identical reprompt repeated within
// this interval.
const DefaultDebounceWindow = 2 * time.Second

const debouncerSize = 1024

// Debouncer remembers which prompt key was last sent to a conversation.
// Keys are semantic prompt identities, not message text, so two renderings
// of the same question still collapse. Safe for concurrent use.
type Debouncer struct {
	seen   *expirable.LRU[string, time.Time]
	window time.Duration
}

// NewDebouncer creates a debouncer with the given suppression window.
// Non-positive windows fall back to DefaultDebounceWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		seen:   expirable.NewLRU[string, time.Time](debouncerSize, nil, window),
		window: window,
	}
}

// Allow reports whether a prompt with this key may be sent to the
// conversation now, and records the send when it may.
func (d *Debouncer) Allow(chatID int64, promptKey string) bool {
	k := fmt.Sprintf("%d|%s", chatID, promptKey)
	if _, ok := d.seen.Get(k); ok {
		return false
	}
	d.seen.Add(k, time.Now())
	return true
}
