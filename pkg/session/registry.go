package session

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRegistrySize bounds the chat registry when no size is configured.
const DefaultRegistrySize = 10000

// Registry remembers which account answered each chat completion id.
// It is bounded; the least recently used ids are forgotten first.
type Registry struct {
	chats *lru.Cache[string, string]
}

// NewRegistry creates a registry holding at most size chat ids.
func NewRegistry(size int) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	chats, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat registry: %w", err)
	}
	return &Registry{chats: chats}, nil
}

// Record associates chatID with account, replacing any earlier association.
func (r *Registry) Record(chatID, account string) {
	r.chats.Add(chatID, account)
}

// Account returns the account recorded for chatID.
func (r *Registry) Account(chatID string) (string, bool) {
	return r.chats.Get(chatID)
}

// Len returns the number of remembered chat ids.
func (r *Registry) Len() int {
	return r.chats.Len()
}
