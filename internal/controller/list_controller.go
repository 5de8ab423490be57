// Package controller holds the list controller: the application logic that
// loads people from the record store, applies add, edit and delete requests,
// and asks the bound view to refresh after each change.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmynk/roster/internal/models"
	"github.com/mmynk/roster/internal/storage"
)

// Defaults applied to every person created through Add.
const (
	DefaultAge    = 20
	DefaultGender = "Male"
)

// ErrNoSuchRow is returned for a row index outside the displayed list.
var ErrNoSuchRow = errors.New("no such row")

// RecordStore is the part of managed.Context the controller needs.
type RecordStore interface {
	NewPerson() *models.Person
	NewFamily() *models.Family
	AddToFamily(f *models.Family, p *models.Person) error
	DeletePerson(p *models.Person) error
	FetchPeople(ctx context.Context, sort storage.Sort) ([]*models.Person, error)
	Save(ctx context.Context) error
}

// View is refreshed after every successful load.
type View interface {
	Reload()
}

// ListController keeps the displayed people in sync with the record store.
//
// Store failures are logged and swallowed: a failed fetch keeps the previous
// list, a failed save is followed by a normal reload. Nothing is rolled back.
type ListController struct {
	store    RecordStore
	view     View
	dispatch Dispatcher

	mu    sync.RWMutex
	items []*models.Person
}

// New creates a ListController. A nil dispatcher runs refreshes inline;
// a nil view skips them.
func New(store RecordStore, view View, dispatch Dispatcher) *ListController {
	if dispatch == nil {
		dispatch = Inline{}
	}
	return &ListController{
		store:    store,
		view:     view,
		dispatch: dispatch,
	}
}

// Load fetches every person sorted by name and refreshes the view.
// On failure the displayed list is left as it was and no refresh happens.
func (c *ListController) Load(ctx context.Context) {
	people, err := c.store.FetchPeople(ctx, storage.ByName)
	if err != nil {
		slog.Error("Error fetching people", "error", err)
		return
	}

	c.mu.Lock()
	c.items = people
	c.mu.Unlock()

	slog.Debug("People loaded", "count", len(people))

	if c.view != nil {
		c.dispatch.Async(c.view.Reload)
	}
}

// Add creates a person called name with the default age and gender,
// saves and reloads. The name is not validated.
func (c *ListController) Add(ctx context.Context, name string) *models.Person {
	person := c.store.NewPerson()
	person.Name = models.String(name)
	person.Age = DefaultAge
	person.Gender = models.String(DefaultGender)

	slog.Info("Adding person", "person_id", person.ID, "name", name)

	c.save(ctx, "Error saving data")
	c.Load(ctx)
	return person
}

// Edit renames person, saves and reloads. An empty name is allowed.
func (c *ListController) Edit(ctx context.Context, person *models.Person, name string) {
	slog.Info("Editing person", "person_id", person.ID, "name", name)

	person.Name = models.String(name)

	c.save(ctx, "Error editing name")
	c.Load(ctx)
}

// Delete removes person, saves and reloads.
func (c *ListController) Delete(ctx context.Context, person *models.Person) {
	slog.Info("Deleting person", "person_id", person.ID)

	if err := c.store.DeletePerson(person); err != nil {
		slog.Error("Error deleting person", "person_id", person.ID, "error", err)
	}

	c.save(ctx, "Error deleting person")
	c.Load(ctx)
}

// EditAt renames the person displayed at row.
func (c *ListController) EditAt(ctx context.Context, row int, name string) error {
	person, err := c.At(row)
	if err != nil {
		return err
	}
	c.Edit(ctx, person, name)
	return nil
}

// DeleteAt removes the person displayed at row.
func (c *ListController) DeleteAt(ctx context.Context, row int) error {
	person, err := c.At(row)
	if err != nil {
		return err
	}
	c.Delete(ctx, person)
	return nil
}

// RelationshipDemo creates "Abc Family" with "Maggie" as its only member and saves.
func (c *ListController) RelationshipDemo(ctx context.Context) (*models.Family, *models.Person) {
	family := c.store.NewFamily()
	family.Name = models.String("Abc Family")

	person := c.store.NewPerson()
	person.Name = models.String("Maggie")

	if err := c.store.AddToFamily(family, person); err != nil {
		slog.Error("Error adding person to family", "error", err)
	}

	c.save(ctx, "Error saving family")
	c.Load(ctx)
	return family, person
}

func (c *ListController) save(ctx context.Context, msg string) {
	if err := c.store.Save(ctx); err != nil {
		slog.Error(msg, "error", err)
	}
}

// Count returns the number of displayed rows.
func (c *ListController) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// At returns the person displayed at row.
func (c *ListController) At(row int) (*models.Person, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if row < 0 || row >= len(c.items) {
		return nil, ErrNoSuchRow
	}
	return c.items[row], nil
}

// Prefill returns the text an edit prompt for row starts with.
func (c *ListController) Prefill(row int) (string, error) {
	person, err := c.At(row)
	if err != nil {
		return "", err
	}
	return person.DisplayName(), nil
}

// Rows returns one label per displayed person. An unset name renders as "".
func (c *ListController) Rows() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	labels := make([]string, len(c.items))
	for i, p := range c.items {
		labels[i] = p.DisplayName()
	}
	return labels
}

// People returns a copy of the displayed list.
func (c *ListController) People() []*models.Person {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*models.Person(nil), c.items...)
}
