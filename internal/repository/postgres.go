package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
)

// PostgresTable stores the single table in one PostgreSQL relation. Each
// secondary index is a (partition, sort) column pair with a btree index.
//
// Conditional writes rely on the version column: an UPDATE filtered on
// `version = $expected` either matches exactly one row and bumps the version
// or matches none. Two writers that read the same version can never both
// succeed, which is what keeps capacity and uniqueness intact without any
// in-process locking. New versions come from the entity_versions sequence,
// so deleting and recreating a key never reissues an old version.
type PostgresTable struct {
	db *pgxpool.Pool
}

// NewPostgresTable constructs a PostgresTable.
func NewPostgresTable(db *pgxpool.Pool) *PostgresTable {
	return &PostgresTable{db: db}
}

var indexColumns = map[index.Name][2]string{
	index.ByDate:     {"gsi1pk", "gsi1sk"},
	index.ByCategory: {"gsi2pk", "gsi2sk"},
}

// indexArgs flattens an item's index entries into nullable column values.
func indexArgs(it Item) (g1pk, g1sk, g2pk, g2sk *string) {
	for _, e := range it.Indexes {
		p, s := e.Partition, e.SortKey
		switch e.Index {
		case index.ByDate:
			g1pk, g1sk = &p, &s
		case index.ByCategory:
			g2pk, g2sk = &p, &s
		}
	}
	return
}

func (t *PostgresTable) Get(ctx context.Context, pk, sk string) (Item, error) {
	row := t.db.QueryRow(ctx,
		`SELECT pk, sk, gsi1pk, gsi1sk, gsi2pk, gsi2sk, version, data
		 FROM entities WHERE pk = $1 AND sk = $2`,
		pk, sk,
	)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (t *PostgresTable) Put(ctx context.Context, item Item) (int64, error) {
	g1pk, g1sk, g2pk, g2sk := indexArgs(item)
	var version int64
	err := t.db.QueryRow(ctx,
		`INSERT INTO entities (pk, sk, gsi1pk, gsi1sk, gsi2pk, gsi2sk, version, data)
		 VALUES ($1, $2, $3, $4, $5, $6, nextval('entity_versions'), $7)
		 ON CONFLICT (pk, sk) DO UPDATE SET
		   gsi1pk = EXCLUDED.gsi1pk, gsi1sk = EXCLUDED.gsi1sk,
		   gsi2pk = EXCLUDED.gsi2pk, gsi2sk = EXCLUDED.gsi2sk,
		   data = EXCLUDED.data, version = nextval('entity_versions')
		 RETURNING version`,
		item.PK, item.SK, g1pk, g1sk, g2pk, g2sk, item.Data,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("put item: %w", err)
	}
	return version, nil
}

// Replace performs the conditional write. When no row matches, a second
// lookup tells a missing item apart from a lost race.
func (t *PostgresTable) Replace(ctx context.Context, item Item, expected int64) (int64, error) {
	g1pk, g1sk, g2pk, g2sk := indexArgs(item)
	var version int64
	err := t.db.QueryRow(ctx,
		`UPDATE entities SET
		   gsi1pk = $3, gsi1sk = $4, gsi2pk = $5, gsi2sk = $6,
		   data = $7, version = nextval('entity_versions')
		 WHERE pk = $1 AND sk = $2 AND version = $8
		 RETURNING version`,
		item.PK, item.SK, g1pk, g1sk, g2pk, g2sk, item.Data, expected,
	).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("replace item: %w", err)
	}

	var exists bool
	if err := t.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entities WHERE pk = $1 AND sk = $2)`,
		item.PK, item.SK,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check item: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrVersionMismatch
}

func (t *PostgresTable) Delete(ctx context.Context, pk, sk string) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM entities WHERE pk = $1 AND sk = $2`, pk, sk)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *PostgresTable) Query(ctx context.Context, q Query) ([]Item, error) {
	cols, ok := indexColumns[q.Index]
	if !ok {
		return nil, fmt.Errorf("unknown index %q", q.Index)
	}
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}
	sql := fmt.Sprintf(
		`SELECT pk, sk, gsi1pk, gsi1sk, gsi2pk, gsi2sk, version, data
		 FROM entities
		 WHERE %[1]s = $1
		   AND ($2 = '' OR %[2]s >= $2)
		   AND ($3 = '' OR %[2]s <= $3)
		 ORDER BY %[2]s ASC, pk ASC
		 LIMIT $4`,
		cols[0], cols[1],
	)
	rows, err := t.db.Query(ctx, sql, q.Partition, q.Range.From, q.Range.To, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Index, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (t *PostgresTable) Count(ctx context.Context, idx index.Name, partition string) (int, error) {
	cols, ok := indexColumns[idx]
	if !ok {
		return 0, fmt.Errorf("unknown index %q", idx)
	}
	var n int
	err := t.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM entities WHERE %s = $1`, cols[0]),
		partition,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", idx, err)
	}
	return n, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		it                     Item
		g1pk, g1sk, g2pk, g2sk *string
	)
	if err := row.Scan(&it.PK, &it.SK, &g1pk, &g1sk, &g2pk, &g2sk, &it.Version, &it.Data); err != nil {
		return Item{}, err
	}
	if g1pk != nil {
		it.Indexes = append(it.Indexes, index.Entry{Index: index.ByDate, Partition: *g1pk, SortKey: deref(g1sk)})
	}
	if g2pk != nil {
		it.Indexes = append(it.Indexes, index.Entry{Index: index.ByCategory, Partition: *g2pk, SortKey: deref(g2sk)})
	}
	return it, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
