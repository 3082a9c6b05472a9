package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the single entity table and its two secondary indexes.
// Versions are drawn from one sequence so a recreated key never reuses a
// version that was handed out before it was deleted.
const schema = `
CREATE SEQUENCE IF NOT EXISTS entity_versions;
CREATE TABLE IF NOT EXISTS entities (
	pk      TEXT   NOT NULL,
	sk      TEXT   NOT NULL,
	gsi1pk  TEXT,
	gsi1sk  TEXT,
	gsi2pk  TEXT,
	gsi2sk  TEXT,
	version BIGINT NOT NULL DEFAULT nextval('entity_versions'),
	data    JSONB  NOT NULL,
	PRIMARY KEY (pk, sk)
);
CREATE INDEX IF NOT EXISTS entities_gsi1 ON entities (gsi1pk, gsi1sk) WHERE gsi1pk IS NOT NULL;
CREATE INDEX IF NOT EXISTS entities_gsi2 ON entities (gsi2pk, gsi2sk) WHERE gsi2pk IS NOT NULL;
ALTER TABLE entities ALTER COLUMN version SET DEFAULT nextval('entity_versions');
SELECT setval('entity_versions', GREATEST(
	(SELECT COALESCE(MAX(version), 0) FROM entities),
	(SELECT last_value FROM entity_versions)
));
`

// Migrate applies the schema. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
