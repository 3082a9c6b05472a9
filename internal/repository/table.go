// Package repository implements the single-table entity store. Workshops and
// users share one logical table keyed by (entity-type#id, METADATA); listing
// partitions are materialised from derived index attributes written in the
// same atomic operation as the primary record.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
)

// ErrNotFound is returned when no item exists under the requested key.
var ErrNotFound = errors.New("item not found")

// ErrVersionMismatch is returned by Replace when the stored version differs
// from the one the caller read.
var ErrVersionMismatch = errors.New("item version mismatch")

// Item is one row of the single table.
type Item struct {
	PK      string
	SK      string
	Indexes []index.Entry
	Version int64
	Data    []byte
}

// IndexValue returns the partition and sort key the item holds in idx.
func (it Item) IndexValue(idx index.Name) (partition, sortKey string, ok bool) {
	for _, e := range it.Indexes {
		if e.Index == idx {
			return e.Partition, e.SortKey, true
		}
	}
	return "", "", false
}

// SortRange bounds a partition query. Empty bounds are open; both ends are
// inclusive.
type SortRange struct {
	From string
	To   string
}

func (r SortRange) contains(sk string) bool {
	if r.From != "" && sk < r.From {
		return false
	}
	if r.To != "" && sk > r.To {
		return false
	}
	return true
}

// Query selects items from one partition of one index, ordered by sort key
// ascending. A zero Limit returns the whole partition.
type Query struct {
	Index     index.Name
	Partition string
	Range     SortRange
	Limit     int
}

// Table is the storage contract every backend satisfies. Put and Delete are
// unconditional; Replace is the compare-and-swap primitive that all
// invariant-preserving writes go through.
type Table interface {
	Get(ctx context.Context, pk, sk string) (Item, error)
	// Put writes the item, overwriting any existing one, and returns the
	// stored version.
	Put(ctx context.Context, item Item) (int64, error)
	// Replace overwrites the item only if its stored version still equals
	// expected. It returns the new version.
	Replace(ctx context.Context, item Item, expected int64) (int64, error)
	Delete(ctx context.Context, pk, sk string) error
	Query(ctx context.Context, q Query) ([]Item, error)
	Count(ctx context.Context, idx index.Name, partition string) (int, error)
}

// WithTimeout bounds every table call by d.
func WithTimeout(t Table, d time.Duration) Table {
	if d <= 0 {
		return t
	}
	return &timeoutTable{next: t, d: d}
}

type timeoutTable struct {
	next Table
	d    time.Duration
}

func (t *timeoutTable) Get(ctx context.Context, pk, sk string) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Get(ctx, pk, sk)
}

func (t *timeoutTable) Put(ctx context.Context, item Item) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Put(ctx, item)
}

func (t *timeoutTable) Replace(ctx context.Context, item Item, expected int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Replace(ctx, item, expected)
}

func (t *timeoutTable) Delete(ctx context.Context, pk, sk string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Delete(ctx, pk, sk)
}

func (t *timeoutTable) Query(ctx context.Context, q Query) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Query(ctx, q)
}

func (t *timeoutTable) Count(ctx context.Context, idx index.Name, partition string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Count(ctx, idx, partition)
}
