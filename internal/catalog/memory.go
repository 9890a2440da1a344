package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryProvider is an in-memory Provider used in tests and as the default
// wiring when no external catalog is configured.
type MemoryProvider struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemoryProvider creates a MemoryProvider seeded with the given products.
func NewMemoryProvider(products ...Product) *MemoryProvider {
	m := &MemoryProvider{products: make(map[string]Product, len(products))}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

// Put inserts or replaces a product.
func (m *MemoryProvider) Put(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// ProductsByID returns products for the given IDs, omitting unknown IDs.
func (m *MemoryProvider) ProductsByID(_ context.Context, ids []string) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// AllProductIDs returns every product ID, sorted for deterministic output.
func (m *MemoryProvider) AllProductIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.products))
	for id := range m.products {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// ProductIDsByCategory returns IDs of products in any of the given categories.
func (m *MemoryProvider) ProductIDsByCategory(_ context.Context, categoryIDs []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for id, p := range m.products {
		for _, c := range categoryIDs {
			if p.InCategory(c) {
				out = append(out, id)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
