// Package seen tracks which post identifiers have already been processed.
//
// The store is bounded: only the newest limit identifiers are kept, so a
// long-running process does not grow without bound. The sqlite-backed store
// additionally survives restarts.
package seen

// Store records processed post identifiers. A post is added exactly once per
// scan regardless of its pipeline outcome.
type Store interface {
	// Seen reports whether the identifier was already recorded.
	Seen(id string) (bool, error)

	// Add records the identifier, evicting the oldest entries beyond the
	// store's limit. Adding an existing identifier is a no-op.
	Add(id string) error

	Close() error
}

// Memory is an in-process Store keeping the newest limit identifiers in
// insertion order.
type Memory struct {
	limit int
	ids   map[string]struct{}
	order []string
}

// NewMemory creates a bounded in-memory store.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = 1000
	}
	return &Memory{limit: limit, ids: make(map[string]struct{}, limit)}
}

func (m *Memory) Seen(id string) (bool, error) {
	_, ok := m.ids[id]
	return ok, nil
}

func (m *Memory) Add(id string) error {
	if _, ok := m.ids[id]; ok {
		return nil
	}
	m.ids[id] = struct{}{}
	m.order = append(m.order, id)
	for len(m.order) > m.limit {
		delete(m.ids, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *Memory) Close() error { return nil }
