package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// AccessibilityRepo implements ports.AccessibilityRepository with pgx.
// Rows live in the nodes table keyed by OSM id.
type AccessibilityRepo struct {
	db *DB
}

// NewAccessibilityRepo creates a new AccessibilityRepo.
func NewAccessibilityRepo(db *DB) *AccessibilityRepo {
	return &AccessibilityRepo{db: db}
}

const upsertNodeSQL = `
	INSERT INTO nodes (osm_id, accessibility, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (osm_id) DO UPDATE
	SET accessibility = EXCLUDED.accessibility, updated_at = now()
`

// Upsert inserts or replaces the override of one node.
func (r *AccessibilityRepo) Upsert(ctx context.Context, o *domain.AccessibilityOverride) error {
	if !o.Accessibility.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAccessibility, o.Accessibility)
	}
	_, err := r.db.Pool.Exec(ctx, upsertNodeSQL, o.OSMID, string(o.Accessibility))
	return err
}

// UpsertBatch writes many overrides using pgx.Batch.
func (r *AccessibilityRepo) UpsertBatch(ctx context.Context, overrides []domain.AccessibilityOverride) error {
	batch := &pgx.Batch{}
	for _, o := range overrides {
		if !o.Accessibility.Valid() {
			return fmt.Errorf("%w: %s: %q", domain.ErrInvalidAccessibility, o.OSMID, o.Accessibility)
		}
		batch.Queue(upsertNodeSQL, o.OSMID, string(o.Accessibility))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range overrides {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByOSMIDs returns the overrides of the given nodes keyed by OSM id.
// Nodes without an override are absent from the map.
func (r *AccessibilityRepo) GetByOSMIDs(ctx context.Context, osmIDs []string) (map[string]domain.Accessibility, error) {
	out := make(map[string]domain.Accessibility)
	if len(osmIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT osm_id, accessibility::text
		FROM nodes
		WHERE osm_id = ANY($1)
	`, osmIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, acc string
		if err := rows.Scan(&id, &acc); err != nil {
			return nil, err
		}
		out[id] = domain.Accessibility(acc)
	}
	return out, rows.Err()
}

// List returns every override, most recently updated first.
func (r *AccessibilityRepo) List(ctx context.Context, limit, offset int) ([]domain.AccessibilityOverride, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT osm_id, accessibility::text, updated_at
		FROM nodes
		ORDER BY updated_at DESC, osm_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccessibilityOverride
	for rows.Next() {
		var o domain.AccessibilityOverride
		var acc string
		if err := rows.Scan(&o.OSMID, &acc, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Accessibility = domain.Accessibility(acc)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Count returns the number of stored overrides.
func (r *AccessibilityRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM nodes`).Scan(&n)
	return n, err
}
