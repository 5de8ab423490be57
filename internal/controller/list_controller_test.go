package controller

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/roster/internal/managed"
	"github.com/mmynk/roster/internal/models"
	"github.com/mmynk/roster/internal/storage"
	"github.com/mmynk/roster/internal/storage/memory"
)

type countingView struct {
	reloads atomic.Int32
}

func (v *countingView) Reload() { v.reloads.Add(1) }

func setup(t *testing.T) (*ListController, *memory.MemoryStore, *countingView) {
	t.Helper()
	store := memory.New("en")
	view := &countingView{}
	return New(managed.New(store), view, nil), store, view
}

func TestLoadEmpty(t *testing.T) {
	c, _, view := setup(t)

	c.Load(context.Background())

	assert.Zero(t, c.Count())
	assert.Empty(t, c.Rows())
	assert.EqualValues(t, 1, view.reloads.Load())
}

func TestAddTed(t *testing.T) {
	c, _, _ := setup(t)

	c.Add(context.Background(), "Ted")

	require.Equal(t, 1, c.Count())
	ted, err := c.At(0)
	require.NoError(t, err)
	assert.Equal(t, "Ted", ted.DisplayName())
	assert.EqualValues(t, DefaultAge, ted.Age)
	assert.Equal(t, DefaultGender, models.StringValue(ted.Gender))
}

func TestAddsAreSortedByName(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	for _, name := range []string{"Ted", "maggie", "Anna", "", "Bob"} {
		c.Add(ctx, name)
	}

	assert.Equal(t, []string{"", "Anna", "Bob", "maggie", "Ted"}, c.Rows())
}

func TestAddWithFailedSaveIsNotShown(t *testing.T) {
	c, store, _ := setup(t)
	ctx := context.Background()

	c.Add(ctx, "Anna")
	store.FailNextApply(nil)
	c.Add(ctx, "Ted")

	assert.Equal(t, []string{"Anna"}, c.Rows())
}

func TestEditKeepsOtherFields(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	family, maggie := c.RelationshipDemo(ctx)
	maggie.Age = 33
	c.Edit(ctx, maggie, "Margaret")

	require.Equal(t, 1, c.Count())
	got, err := c.At(0)
	require.NoError(t, err)
	assert.Equal(t, "Margaret", got.DisplayName())
	assert.EqualValues(t, 33, got.Age)
	assert.Same(t, family, got.Family())
}

func TestEditAtAllowsEmptyName(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	c.Add(ctx, "Ted")
	require.NoError(t, c.EditAt(ctx, 0, ""))

	assert.Equal(t, []string{""}, c.Rows())
	prefill, err := c.Prefill(0)
	require.NoError(t, err)
	assert.Equal(t, "", prefill)
}

func TestDeleteRemovesFromListAndFamily(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	family, maggie := c.RelationshipDemo(ctx)
	c.Add(ctx, "Ted")
	require.Equal(t, []string{"Maggie", "Ted"}, c.Rows())

	require.NoError(t, c.DeleteAt(ctx, 0))

	assert.Equal(t, []string{"Ted"}, c.Rows())
	assert.False(t, family.Contains(maggie))
	assert.Nil(t, maggie.Family())
}

func TestRowOutOfRange(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.EditAt(ctx, 0, "x"), ErrNoSuchRow)
	assert.ErrorIs(t, c.DeleteAt(ctx, -1), ErrNoSuchRow)
	_, err := c.Prefill(3)
	assert.ErrorIs(t, err, ErrNoSuchRow)
}

func TestRelationshipDemo(t *testing.T) {
	c, _, _ := setup(t)

	family, maggie := c.RelationshipDemo(context.Background())

	require.NotNil(t, maggie.Family())
	assert.Equal(t, "Abc Family", models.StringValue(maggie.Family().Name))
	assert.True(t, family.Contains(maggie))
	assert.Equal(t, []string{"Maggie"}, c.Rows())
}

func TestFetchFailureKeepsPreviousList(t *testing.T) {
	c, store, view := setup(t)
	ctx := context.Background()

	c.Add(ctx, "Ted")
	before := c.People()
	reloads := view.reloads.Load()

	store.FailNextFetch(nil)
	assert.NotPanics(t, func() { c.Load(ctx) })

	assert.Equal(t, before, c.People())
	assert.Equal(t, reloads, view.reloads.Load())
}

func TestFetchFailureOnFirstLoadStaysBlank(t *testing.T) {
	c, store, view := setup(t)

	store.FailNextFetch(nil)
	c.Load(context.Background())

	assert.Zero(t, c.Count())
	assert.Zero(t, view.reloads.Load())
}

func TestFailedEditStillShowsInMemoryName(t *testing.T) {
	c, store, _ := setup(t)
	ctx := context.Background()

	c.Add(ctx, "Ted")
	store.FailNextApply(nil)
	require.NoError(t, c.EditAt(ctx, 0, "Theodore"))

	assert.Equal(t, []string{"Theodore"}, c.Rows())
	rows, err := store.ListPeople(ctx, storage.ByName)
	require.NoError(t, err)
	assert.Equal(t, "Ted", *rows[0].Name)
}

func TestNilViewIsAllowed(t *testing.T) {
	c := New(managed.New(memory.New("en")), nil, nil)
	assert.NotPanics(t, func() { c.Add(context.Background(), "Ted") })
	assert.Equal(t, 1, c.Count())
}

func TestMainQueueRefresh(t *testing.T) {
	q := NewMainQueue()
	defer q.Close()

	view := &countingView{}
	c := New(managed.New(memory.New("en")), view, q)
	ctx := context.Background()

	c.Add(ctx, "Ted")
	c.Add(ctx, "Anna")
	q.Flush()

	assert.EqualValues(t, 2, view.reloads.Load())
}
