package auth

import "sync"

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (m *MemoryStore) Save(server string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[serverKey(server)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Load(server string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[serverKey(server)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(server string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, serverKey(server))
	return nil
}

// Len returns the number of stored records
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
