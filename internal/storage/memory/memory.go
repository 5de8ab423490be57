// Package memory provides an in-memory implementation of storage.Store.
//
// It backs tests and throwaway sessions. Ordering follows the collation
// rules of a configurable locale, and failures can be injected to simulate
// a corrupted store or a schema mismatch.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmynk/roster/internal/storage"
)

// Ensure MemoryStore implements storage.Store
var _ storage.Store = (*MemoryStore)(nil)

// ErrInjected is the default failure returned by FailNextFetch and FailNextApply.
var ErrInjected = errors.New("injected store failure")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store is closed")

// MemoryStore implements storage.Store with maps.
// Uses sync.RWMutex for thread-safe concurrent access.
type MemoryStore struct {
	mu       sync.RWMutex
	people   map[string]storage.PersonRow
	families map[string]storage.FamilyRow
	tag      language.Tag
	closed   bool

	fetchErr error
	applyErr error
}

// New creates an empty store ordering text by the rules of locale
// (a BCP 47 tag such as "en" or "sv"). An unparseable locale falls back to English.
func New(locale string) *MemoryStore {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &MemoryStore{
		people:   make(map[string]storage.PersonRow),
		families: make(map[string]storage.FamilyRow),
		tag:      tag,
	}
}

// FailNextFetch makes the next ListPeople or ListFamilies call fail with err
// (ErrInjected when err is nil).
func (m *MemoryStore) FailNextFetch(err error) {
	if err == nil {
		err = ErrInjected
	}
	m.mu.Lock()
	m.fetchErr = err
	m.mu.Unlock()
}

// FailNextApply makes the next Apply call fail with err
// (ErrInjected when err is nil). Nothing from that change set is written.
func (m *MemoryStore) FailNextApply(err error) {
	if err == nil {
		err = ErrInjected
	}
	m.mu.Lock()
	m.applyErr = err
	m.mu.Unlock()
}

// takeFetchErr returns and clears a pending injected fetch failure.
// Caller must hold m.mu for writing.
func (m *MemoryStore) takeFetchErr() error {
	if m.closed {
		return ErrClosed
	}
	err := m.fetchErr
	m.fetchErr = nil
	return err
}

// ListPeople returns copies of every person ordered by sort.
func (m *MemoryStore) ListPeople(ctx context.Context, s storage.Sort) ([]storage.PersonRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storage.FetchError{Entity: "people", Err: err}
	}
	if !s.Valid() {
		return nil, &storage.FetchError{Entity: "people", Err: fmt.Errorf("%w: %q", storage.ErrUnknownSortKey, s.Key)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFetchErr(); err != nil {
		return nil, &storage.FetchError{Entity: "people", Err: err}
	}

	people := make([]storage.PersonRow, 0, len(m.people))
	for _, p := range m.people {
		people = append(people, copyPerson(p))
	}

	// collate.Collator is not safe for concurrent use; build one per call.
	col := collate.New(m.tag, collate.IgnoreCase)
	sort.SliceStable(people, func(i, j int) bool {
		c := comparePeople(col, s.Key, people[i], people[j])
		if c == 0 {
			return people[i].ID < people[j].ID
		}
		if s.Ascending {
			return c < 0
		}
		return c > 0
	})

	return people, nil
}

// ListFamilies returns copies of every family ordered by name.
func (m *MemoryStore) ListFamilies(ctx context.Context) ([]storage.FamilyRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storage.FetchError{Entity: "families", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFetchErr(); err != nil {
		return nil, &storage.FetchError{Entity: "families", Err: err}
	}

	families := make([]storage.FamilyRow, 0, len(m.families))
	for _, f := range m.families {
		families = append(families, storage.FamilyRow{ID: f.ID, Name: copyString(f.Name)})
	}

	col := collate.New(m.tag, collate.IgnoreCase)
	sort.SliceStable(families, func(i, j int) bool {
		c := compareText(col, families[i].Name, families[j].Name)
		if c == 0 {
			return families[i].ID < families[j].ID
		}
		return c < 0
	})

	return families, nil
}

// Apply validates the whole change set against a staged copy and only then
// swaps it in, so a rejected change set leaves the store untouched.
func (m *MemoryStore) Apply(ctx context.Context, changes *storage.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return &storage.SaveError{Err: err}
	}
	if changes.Empty() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return &storage.SaveError{Err: ErrClosed}
	}
	if err := m.applyErr; err != nil {
		m.applyErr = nil
		return &storage.SaveError{Err: err}
	}

	people := make(map[string]storage.PersonRow, len(m.people))
	for id, p := range m.people {
		people[id] = p
	}
	families := make(map[string]storage.FamilyRow, len(m.families))
	for id, f := range m.families {
		families[id] = f
	}

	for _, f := range changes.UpsertFamilies {
		families[f.ID] = storage.FamilyRow{ID: f.ID, Name: copyString(f.Name)}
	}
	for _, p := range changes.UpsertPeople {
		if p.FamilyID != "" {
			if _, ok := families[p.FamilyID]; !ok {
				return &storage.SaveError{Err: fmt.Errorf("person %s: family %s: %w", p.ID, p.FamilyID, storage.ErrNotFound)}
			}
		}
		people[p.ID] = copyPerson(p)
	}
	for _, id := range changes.DeletePeople {
		delete(people, id)
	}
	for _, id := range changes.DeleteFamilies {
		delete(families, id)
		for pid, p := range people {
			if p.FamilyID == id {
				p.FamilyID = ""
				people[pid] = p
			}
		}
	}

	m.people = people
	m.families = families
	return nil
}

// Close marks the store closed. Later calls fail.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func comparePeople(col *collate.Collator, key string, a, b storage.PersonRow) int {
	switch key {
	case storage.SortByAge:
		switch {
		case a.Age < b.Age:
			return -1
		case a.Age > b.Age:
			return 1
		}
		return 0
	case storage.SortByGender:
		return compareText(col, a.Gender, b.Gender)
	default:
		return compareText(col, a.Name, b.Name)
	}
}

// compareText orders nil before any text, matching SQL NULL ordering.
func compareText(col *collate.Collator, a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return col.CompareString(*a, *b)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyPerson(p storage.PersonRow) storage.PersonRow {
	p.Name = copyString(p.Name)
	p.Gender = copyString(p.Gender)
	return p
}
