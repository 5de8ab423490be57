package managed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/roster/internal/metrics"
	"github.com/mmynk/roster/internal/models"
	"github.com/mmynk/roster/internal/storage"
)

// ErrForeignObject is returned for a record that is not registered with the context.
var ErrForeignObject = errors.New("record does not belong to this context")

// Context is the working set of records bound to one store.
type Context struct {
	mu      sync.Mutex
	store   storage.Store
	metrics *metrics.Metrics
	newID   func() string

	people   map[string]*models.Person
	families map[string]*models.Family

	// Last committed state of every record the context has seen durable.
	// A registered record with no entry here is a pending insert.
	committedPeople   map[string]storage.PersonRow
	committedFamilies map[string]storage.FamilyRow

	deletedPeople   map[string]*models.Person
	deletedFamilies map[string]*models.Family

	// Store order of the last family fetch.
	sortedFamilyRows []storage.FamilyRow
}

// Option configures a Context.
type Option func(*Context)

// WithMetrics records fetch and save outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithIDGenerator replaces the UUID generator, for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(c *Context) { c.newID = fn }
}

// New creates a Context over store.
func New(store storage.Store, opts ...Option) *Context {
	c := &Context{
		store:             store,
		newID:             func() string { return uuid.New().String() },
		people:            make(map[string]*models.Person),
		families:          make(map[string]*models.Family),
		committedPeople:   make(map[string]storage.PersonRow),
		committedFamilies: make(map[string]storage.FamilyRow),
		deletedPeople:     make(map[string]*models.Person),
		deletedFamilies:   make(map[string]*models.Family),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewPerson creates a person bound to the context. It is not durable until Save.
func (c *Context) NewPerson() *models.Person {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &models.Person{ID: c.newID()}
	c.people[p.ID] = p
	return p
}

// NewFamily creates a family bound to the context. It is not durable until Save.
func (c *Context) NewFamily() *models.Family {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := &models.Family{ID: c.newID()}
	c.families[f.ID] = f
	return f
}

// AddToFamily sets p's family to f and adds p to f's people in one step.
func (c *Context) AddToFamily(f *models.Family, p *models.Person) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.families[f.ID] != f || c.people[p.ID] != p {
		return ErrForeignObject
	}
	f.AddToPeople(p)
	return nil
}

// DeletePerson removes p from its family and marks it for deletion.
// A person that was never saved is simply forgotten.
func (c *Context) DeletePerson(p *models.Person) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.people[p.ID] != p {
		return ErrForeignObject
	}
	p.SetFamily(nil)
	delete(c.people, p.ID)
	if _, ok := c.committedPeople[p.ID]; ok {
		c.deletedPeople[p.ID] = p
	}
	return nil
}

// DeleteFamily detaches every member and marks the family for deletion.
// Members stay in the store with no family.
func (c *Context) DeleteFamily(f *models.Family) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.families[f.ID] != f {
		return ErrForeignObject
	}
	f.Detach()
	delete(c.families, f.ID)
	if _, ok := c.committedFamilies[f.ID]; ok {
		c.deletedFamilies[f.ID] = f
	}
	return nil
}

// FetchPeople returns the committed people in the order given by sort.
// Records already in the context are returned as the same objects, carrying
// any unsaved edits. Pending inserts are not included; pending deletes are skipped.
func (c *Context) FetchPeople(ctx context.Context, sort storage.Sort) ([]*models.Person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.store.ListPeople(ctx, sort)
	c.metrics.ObserveFetch("people", err)
	if err != nil {
		return nil, wrapFetch("people", err)
	}

	needFamilies := false
	for _, row := range rows {
		if row.FamilyID != "" {
			needFamilies = true
			break
		}
	}
	if needFamilies {
		if err := c.syncFamilies(ctx); err != nil {
			return nil, err
		}
	}

	people := make([]*models.Person, 0, len(rows))
	for _, row := range rows {
		if _, deleted := c.deletedPeople[row.ID]; deleted {
			continue
		}
		people = append(people, c.registerPerson(row))
	}

	slog.Debug("Fetched people", "count", len(people), "sort", sort.Key, "ascending", sort.Ascending)

	return people, nil
}

// FetchFamilies returns the committed families ordered by name.
func (c *Context) FetchFamilies(ctx context.Context) ([]*models.Family, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.syncFamilies(ctx); err != nil {
		return nil, err
	}

	// Membership lives on the people rows.
	rows, err := c.store.ListPeople(ctx, storage.ByName)
	c.metrics.ObserveFetch("people", err)
	if err != nil {
		return nil, wrapFetch("people", err)
	}
	for _, row := range rows {
		if _, deleted := c.deletedPeople[row.ID]; deleted {
			continue
		}
		c.registerPerson(row)
	}

	families := make([]*models.Family, 0, len(c.sortedFamilyRows))
	for _, row := range c.sortedFamilyRows {
		if f, ok := c.families[row.ID]; ok {
			families = append(families, f)
		}
	}
	return families, nil
}

// syncFamilies refreshes the family identity map from the store.
// Caller must hold c.mu.
func (c *Context) syncFamilies(ctx context.Context) error {
	rows, err := c.store.ListFamilies(ctx)
	c.metrics.ObserveFetch("families", err)
	if err != nil {
		return wrapFetch("families", err)
	}

	c.sortedFamilyRows = c.sortedFamilyRows[:0]
	for _, row := range rows {
		if _, deleted := c.deletedFamilies[row.ID]; deleted {
			continue
		}
		c.sortedFamilyRows = append(c.sortedFamilyRows, row)

		f, ok := c.families[row.ID]
		switch {
		case !ok:
			f = &models.Family{ID: row.ID, Name: copyString(row.Name)}
			c.families[row.ID] = f
		case !c.familyDirty(f):
			f.Name = copyString(row.Name)
		}
		c.committedFamilies[row.ID] = row
	}
	return nil
}

// registerPerson resolves row through the identity map. A clean object is
// refreshed from the row; a dirty one keeps its in-memory state.
// Caller must hold c.mu.
func (c *Context) registerPerson(row storage.PersonRow) *models.Person {
	p, ok := c.people[row.ID]
	if ok && c.personDirty(p) {
		c.committedPeople[row.ID] = row
		return p
	}
	if !ok {
		p = &models.Person{ID: row.ID}
		c.people[row.ID] = p
	}

	p.Name = copyString(row.Name)
	p.Gender = copyString(row.Gender)
	p.Age = row.Age
	if f := c.families[row.FamilyID]; f != nil {
		f.AddToPeople(p)
	} else {
		p.SetFamily(nil)
	}

	c.committedPeople[row.ID] = row
	return p
}

// HasChanges reports whether Save would write anything.
func (c *Context) HasChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	changes, err := c.pendingChanges()
	return err != nil || !changes.Empty()
}

// Save commits every pending insert, update and delete in one Apply.
// On failure nothing is rolled back: the objects keep their in-memory state
// and the changes stay pending. Errors are *storage.SaveError.
func (c *Context) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changes, err := c.pendingChanges()
	if err != nil {
		c.metrics.ObserveSave(0, err)
		return &storage.SaveError{Err: err}
	}
	if changes.Empty() {
		return nil
	}

	start := time.Now()
	err = c.store.Apply(ctx, changes)
	c.metrics.ObserveSave(time.Since(start).Seconds(), err)
	if err != nil {
		if !storage.IsSaveError(err) {
			err = &storage.SaveError{Err: err}
		}
		return err
	}

	for _, row := range changes.UpsertFamilies {
		c.committedFamilies[row.ID] = row
	}
	for _, row := range changes.UpsertPeople {
		c.committedPeople[row.ID] = row
	}
	for _, id := range changes.DeletePeople {
		delete(c.committedPeople, id)
		delete(c.deletedPeople, id)
	}
	for _, id := range changes.DeleteFamilies {
		delete(c.committedFamilies, id)
		delete(c.deletedFamilies, id)
	}

	slog.Debug("Context saved",
		"families_upserted", len(changes.UpsertFamilies),
		"people_upserted", len(changes.UpsertPeople),
		"people_deleted", len(changes.DeletePeople),
		"families_deleted", len(changes.DeleteFamilies),
	)

	return nil
}

// Rollback discards every pending change: inserts are forgotten, deletes are
// undone and edited records are restored to their last committed state.
func (c *Context) Rollback() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, f := range c.families {
		if _, ok := c.committedFamilies[id]; !ok {
			f.Detach()
			delete(c.families, id)
		}
	}
	for id, f := range c.deletedFamilies {
		c.families[id] = f
		delete(c.deletedFamilies, id)
	}
	for id, f := range c.families {
		f.Name = copyString(c.committedFamilies[id].Name)
	}

	for id, p := range c.people {
		if _, ok := c.committedPeople[id]; !ok {
			p.SetFamily(nil)
			delete(c.people, id)
		}
	}
	for id, p := range c.deletedPeople {
		c.people[id] = p
		delete(c.deletedPeople, id)
	}
	for id, p := range c.people {
		row := c.committedPeople[id]
		p.Name = copyString(row.Name)
		p.Gender = copyString(row.Gender)
		p.Age = row.Age
		if f := c.families[row.FamilyID]; f != nil {
			f.AddToPeople(p)
		} else {
			p.SetFamily(nil)
		}
	}
}

// pendingChanges diffs the working set against the committed snapshots.
// Caller must hold c.mu.
func (c *Context) pendingChanges() (*storage.ChangeSet, error) {
	changes := &storage.ChangeSet{}

	for _, f := range c.families {
		if c.familyDirty(f) {
			changes.UpsertFamilies = append(changes.UpsertFamilies, familyRow(f))
		}
	}
	for _, p := range c.people {
		if f := p.Family(); f != nil && c.families[f.ID] != f {
			return nil, fmt.Errorf("person %s: family %s: %w", p.ID, f.ID, ErrForeignObject)
		}
		if c.personDirty(p) {
			changes.UpsertPeople = append(changes.UpsertPeople, personRow(p))
		}
	}
	for id := range c.deletedPeople {
		changes.DeletePeople = append(changes.DeletePeople, id)
	}
	for id := range c.deletedFamilies {
		changes.DeleteFamilies = append(changes.DeleteFamilies, id)
	}

	return changes, nil
}

func (c *Context) personDirty(p *models.Person) bool {
	committed, ok := c.committedPeople[p.ID]
	return !ok || !personRowsEqual(committed, personRow(p))
}

func (c *Context) familyDirty(f *models.Family) bool {
	committed, ok := c.committedFamilies[f.ID]
	return !ok || !stringsEqual(committed.Name, f.Name)
}

func wrapFetch(entity string, err error) error {
	if storage.IsFetchError(err) {
		return err
	}
	return &storage.FetchError{Entity: entity, Err: err}
}
