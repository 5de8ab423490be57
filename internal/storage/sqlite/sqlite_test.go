package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/roster/internal/storage"
)

func str(s string) *string { return &s }

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func names(rows []storage.PersonRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		if r.Name != nil {
			out[i] = *r.Name
		}
	}
	return out
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Apply inserts people and families", func(t *testing.T) {
		err := store.Apply(ctx, &storage.ChangeSet{
			UpsertFamilies: []storage.FamilyRow{{ID: "f1", Name: str("Abc Family")}},
			UpsertPeople: []storage.PersonRow{
				{ID: "p1", Name: str("Ted"), Gender: str("Male"), Age: 20},
				{ID: "p2", Name: str("maggie"), FamilyID: "f1"},
				{ID: "p3", Name: str("Anna"), Age: 31},
			},
		})
		require.NoError(t, err)

		people, err := store.ListPeople(ctx, storage.ByName)
		require.NoError(t, err)
		assert.Equal(t, []string{"Anna", "maggie", "Ted"}, names(people))

		maggie := people[1]
		assert.Equal(t, "f1", maggie.FamilyID)
		assert.Nil(t, maggie.Gender)
		assert.Zero(t, maggie.Age)

		families, err := store.ListFamilies(ctx)
		require.NoError(t, err)
		require.Len(t, families, 1)
		assert.Equal(t, "Abc Family", *families[0].Name)
	})

	t.Run("Apply updates existing rows", func(t *testing.T) {
		err := store.Apply(ctx, &storage.ChangeSet{
			UpsertPeople: []storage.PersonRow{
				{ID: "p1", Name: str("Theodore"), Gender: str("Male"), Age: 20},
			},
		})
		require.NoError(t, err)

		people, err := store.ListPeople(ctx, storage.ByName)
		require.NoError(t, err)
		assert.Equal(t, []string{"Anna", "maggie", "Theodore"}, names(people))
	})

	t.Run("Sort descending and by age", func(t *testing.T) {
		people, err := store.ListPeople(ctx, storage.Sort{Key: storage.SortByName})
		require.NoError(t, err)
		assert.Equal(t, []string{"Theodore", "maggie", "Anna"}, names(people))

		people, err = store.ListPeople(ctx, storage.Sort{Key: storage.SortByAge, Ascending: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"maggie", "Theodore", "Anna"}, names(people))
	})

	t.Run("Deleting a family clears membership", func(t *testing.T) {
		err := store.Apply(ctx, &storage.ChangeSet{DeleteFamilies: []string{"f1"}})
		require.NoError(t, err)

		people, err := store.ListPeople(ctx, storage.ByName)
		require.NoError(t, err)
		for _, p := range people {
			assert.Empty(t, p.FamilyID, "person %s still has a family", p.ID)
		}
	})

	t.Run("Deleting a person", func(t *testing.T) {
		err := store.Apply(ctx, &storage.ChangeSet{DeletePeople: []string{"p3"}})
		require.NoError(t, err)

		people, err := store.ListPeople(ctx, storage.ByName)
		require.NoError(t, err)
		assert.Equal(t, []string{"maggie", "Theodore"}, names(people))
	})

	t.Run("Unknown sort key is a fetch error", func(t *testing.T) {
		_, err := store.ListPeople(ctx, storage.Sort{Key: "family"})
		require.Error(t, err)
		assert.True(t, storage.IsFetchError(err))
		assert.ErrorIs(t, err, storage.ErrUnknownSortKey)
	})
}

func TestApplyIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// The second person references a family that does not exist, so the
	// whole change set must be rejected.
	err := store.Apply(ctx, &storage.ChangeSet{
		UpsertPeople: []storage.PersonRow{
			{ID: "p1", Name: str("Ted")},
			{ID: "p2", Name: str("Maggie"), FamilyID: "missing"},
		},
	})
	require.Error(t, err)
	assert.True(t, storage.IsSaveError(err))

	people, err := store.ListPeople(ctx, storage.ByName)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestNullableText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Apply(ctx, &storage.ChangeSet{
		UpsertPeople: []storage.PersonRow{
			{ID: "nil-name"},
			{ID: "empty-name", Name: str("")},
		},
	})
	require.NoError(t, err)

	people, err := store.ListPeople(ctx, storage.ByName)
	require.NoError(t, err)
	require.Len(t, people, 2)

	// NULL sorts before '' ascending.
	assert.Equal(t, "nil-name", people[0].ID)
	assert.Nil(t, people[0].Name)
	require.NotNil(t, people[1].Name)
	assert.Equal(t, "", *people[1].Name)
}

func TestFetchAfterCloseFails(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.ListPeople(context.Background(), storage.ByName)
	assert.True(t, storage.IsFetchError(err))

	err = store.Apply(context.Background(), &storage.ChangeSet{DeletePeople: []string{"x"}})
	assert.True(t, storage.IsSaveError(err))
}

func TestMemoryPath(t *testing.T) {
	store, err := New(MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Apply(ctx, &storage.ChangeSet{
		UpsertPeople: []storage.PersonRow{{ID: "p1", Name: str("Ted")}},
	}))

	people, err := store.ListPeople(ctx, storage.ByName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ted"}, names(people))
}
