// Package dedup drops inbound events that were already admitted, keyed by
// Telegram delivery (update) id and message id per conversation. The cache
// is a bounded LRU: very old duplicates may be re-admitted after eviction,
// which is tolerable; a genuinely new event is never dropped.
package dedup

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the number of remembered event ids.
const DefaultSize = 4096

// Gate is safe for concurrent use.
type Gate struct {
	seen *lru.Cache[string, struct{}]
}

// New creates a gate remembering at most size ids. Non-positive size falls
// back to DefaultSize.
func New(size int) (*Gate, error) {
	if size <= 0 {
		size = DefaultSize
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: %w", err)
	}
	return &Gate{seen: seen}, nil
}

// Admit returns false if either id was already seen for this conversation.
// On admission both ids are recorded. Zero ids carry no identity and are
// not tracked.
func (g *Gate) Admit(chatID int64, updateID, messageID int) bool {
	keys := make([]string, 0, 2)
	if updateID != 0 {
		keys = append(keys, fmt.Sprintf("u:%d:%d", chatID, updateID))
	}
	if messageID != 0 {
		keys = append(keys, fmt.Sprintf("m:%d:%d", chatID, messageID))
	}
	for _, k := range keys {
		if _, ok := g.seen.Get(k); ok {
			return false
		}
	}
	for _, k := range keys {
		g.seen.Add(k, struct{}{})
	}
	return true
}

// Len returns the number of tracked ids.
func (g *Gate) Len() int {
	return g.seen.Len()
}
