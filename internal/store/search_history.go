package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxSearchHistory bounds the number of remembered queries.
const MaxSearchHistory = 10

// SearchHistory remembers recent search queries, newest first.
// Keys are "<unix-nano>_<query>" so that lexical order is chronological.
type SearchHistory struct {
	kv  KV
	now func() time.Time
}

// NewSearchHistory wraps kv's search_history namespace.
func NewSearchHistory(kv KV) *SearchHistory {
	return &SearchHistory{kv: kv, now: time.Now}
}

// Add records query, moving it to the front when already present.
func (h *SearchHistory) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	keys, err := h.kv.Keys(ctx, NamespaceSearchHistory)
	if err != nil {
		return fmt.Errorf("list search history: %w", err)
	}
	for _, k := range keys {
		if queryFromKey(k) == query {
			if err := h.kv.Delete(ctx, NamespaceSearchHistory, k); err != nil {
				return err
			}
		}
	}

	key := fmt.Sprintf("%019d_%s", h.now().UnixNano(), query)
	if err := h.kv.Set(ctx, NamespaceSearchHistory, key, query); err != nil {
		return fmt.Errorf("save search query: %w", err)
	}
	return h.trim(ctx)
}

// List returns remembered queries, newest first.
func (h *SearchHistory) List(ctx context.Context) ([]string, error) {
	keys, err := h.sortedKeys(ctx)
	if err != nil {
		return nil, err
	}
	queries := make([]string, 0, len(keys))
	for _, k := range keys {
		queries = append(queries, queryFromKey(k))
	}
	return queries, nil
}

// Remove forgets a single query.
func (h *SearchHistory) Remove(ctx context.Context, query string) error {
	keys, err := h.kv.Keys(ctx, NamespaceSearchHistory)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if queryFromKey(k) == query {
			if err := h.kv.Delete(ctx, NamespaceSearchHistory, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear forgets every query.
func (h *SearchHistory) Clear(ctx context.Context) error {
	return h.kv.Clear(ctx, NamespaceSearchHistory)
}

func (h *SearchHistory) trim(ctx context.Context) error {
	keys, err := h.sortedKeys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys[min(len(keys), MaxSearchHistory):] {
		if err := h.kv.Delete(ctx, NamespaceSearchHistory, k); err != nil {
			return err
		}
	}
	return nil
}

// sortedKeys returns keys newest first.
func (h *SearchHistory) sortedKeys(ctx context.Context) ([]string, error) {
	keys, err := h.kv.Keys(ctx, NamespaceSearchHistory)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func queryFromKey(key string) string {
	if _, query, ok := strings.Cut(key, "_"); ok {
		return query
	}
	return key
}
