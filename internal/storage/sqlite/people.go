package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/roster/internal/storage"
)

// orderClauses maps sort keys to ORDER BY expressions. The id tiebreak keeps
// equal names in a stable order across fetches.
var orderClauses = map[string]string{
	storage.SortByName:   "name COLLATE NOCASE",
	storage.SortByAge:    "age",
	storage.SortByGender: "gender COLLATE NOCASE",
}

// ListPeople returns every committed person in the requested order.
func (s *SQLiteStore) ListPeople(ctx context.Context, sort storage.Sort) ([]storage.PersonRow, error) {
	people, err := s.listPeople(ctx, sort)
	if err != nil {
		return nil, &storage.FetchError{Entity: "people", Err: err}
	}
	return people, nil
}

func (s *SQLiteStore) listPeople(ctx context.Context, sort storage.Sort) ([]storage.PersonRow, error) {
	order, ok := orderClauses[sort.Key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownSortKey, sort.Key)
	}
	direction := "ASC"
	if !sort.Ascending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, name, gender, age, family_id
		FROM people
		ORDER BY %s %s, id ASC
	`, order, direction)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []storage.PersonRow
	for rows.Next() {
		var (
			person   storage.PersonRow
			name     sql.NullString
			gender   sql.NullString
			familyID sql.NullString
		)
		if err := rows.Scan(&person.ID, &name, &gender, &person.Age, &familyID); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		person.Name = stringPtr(name)
		person.Gender = stringPtr(gender)
		person.FamilyID = familyID.String
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	return people, nil
}

func upsertPerson(ctx context.Context, tx *sql.Tx, person storage.PersonRow) error {
	var familyID interface{}
	if person.FamilyID != "" {
		familyID = person.FamilyID
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO people (id, name, gender, age, family_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			age = excluded.age,
			family_id = excluded.family_id
	`,
		person.ID,
		nullString(person.Name),
		nullString(person.Gender),
		person.Age,
		familyID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert person: %w", err)
	}
	return nil
}
