package store

import (
	"sort"
	"sync"

	"github.com/research-patron/post-analyze/pkg/model"
)

// MemoryStore はインメモリの永続化実装（テスト・一時利用向け）
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]model.HistoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.HistoryRecord)}
}

func (m *MemoryStore) Load() ([]*model.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*model.HistoryRecord, 0, len(m.records))
	for _, rec := range m.records {
		clone := rec
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

func (m *MemoryStore) Save(record *model.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = *record
	return nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
