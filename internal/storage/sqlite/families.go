package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/roster/internal/storage"
)

// ListFamilies returns every committed family ordered by name.
func (s *SQLiteStore) ListFamilies(ctx context.Context) ([]storage.FamilyRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM families ORDER BY name COLLATE NOCASE, id",
	)
	if err != nil {
		return nil, &storage.FetchError{Entity: "families", Err: fmt.Errorf("failed to query families: %w", err)}
	}
	defer rows.Close()

	var families []storage.FamilyRow
	for rows.Next() {
		var (
			family storage.FamilyRow
			name   sql.NullString
		)
		if err := rows.Scan(&family.ID, &name); err != nil {
			return nil, &storage.FetchError{Entity: "families", Err: fmt.Errorf("failed to scan family: %w", err)}
		}
		family.Name = stringPtr(name)
		families = append(families, family)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.FetchError{Entity: "families", Err: fmt.Errorf("error iterating families: %w", err)}
	}

	return families, nil
}

func upsertFamily(ctx context.Context, tx *sql.Tx, family storage.FamilyRow) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO families (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`,
		family.ID,
		nullString(family.Name),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert family: %w", err)
	}
	return nil
}
