package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
)

// MemoryTable is an in-process Table. It honours the same conditional-write
// contract as the database backends and is used for local runs and tests.
//
// Versions come from one table-wide counter, so a key that is deleted and
// put again never reissues a version an earlier reader may still hold.
type MemoryTable struct {
	mu    sync.RWMutex
	items map[string]Item
	seq   int64
}

// NewMemoryTable constructs an empty MemoryTable.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{items: make(map[string]Item)}
}

func memKey(pk, sk string) string { return pk + "\x00" + sk }

func (m *MemoryTable) Get(ctx context.Context, pk, sk string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[memKey(pk, sk)]
	if !ok {
		return Item{}, ErrNotFound
	}
	return cloneItem(it), nil
}

func (m *MemoryTable) Put(ctx context.Context, item Item) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(item.PK, item.SK)
	item = cloneItem(item)
	m.seq++
	item.Version = m.seq
	m.items[k] = item
	return item.Version, nil
}

func (m *MemoryTable) Replace(ctx context.Context, item Item, expected int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(item.PK, item.SK)
	cur, ok := m.items[k]
	if !ok {
		return 0, ErrNotFound
	}
	if cur.Version != expected {
		return 0, ErrVersionMismatch
	}
	item = cloneItem(item)
	m.seq++
	item.Version = m.seq
	m.items[k] = item
	return item.Version, nil
}

func (m *MemoryTable) Delete(ctx context.Context, pk, sk string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(pk, sk)
	if _, ok := m.items[k]; !ok {
		return ErrNotFound
	}
	delete(m.items, k)
	return nil
}

func (m *MemoryTable) Query(ctx context.Context, q Query) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	type hit struct {
		sk   string
		item Item
	}
	var hits []hit
	for _, it := range m.items {
		p, sk, ok := it.IndexValue(q.Index)
		if !ok || p != q.Partition || !q.Range.contains(sk) {
			continue
		}
		hits = append(hits, hit{sk: sk, item: cloneItem(it)})
	}
	m.mu.RUnlock()

	slices.SortFunc(hits, func(a, b hit) int {
		if c := strings.Compare(a.sk, b.sk); c != 0 {
			return c
		}
		return strings.Compare(a.item.PK, b.item.PK)
	})
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]Item, len(hits))
	for i, h := range hits {
		out[i] = h.item
	}
	return out, nil
}

func (m *MemoryTable) Count(ctx context.Context, idx index.Name, partition string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, it := range m.items {
		if p, _, ok := it.IndexValue(idx); ok && p == partition {
			n++
		}
	}
	return n, nil
}

func cloneItem(it Item) Item {
	it.Indexes = slices.Clone(it.Indexes)
	it.Data = slices.Clone(it.Data)
	return it
}
