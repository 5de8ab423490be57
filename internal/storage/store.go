// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
)

// Store defines the durable backend behind a managed.Context.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the context or the controller.
type Store interface {
	// ListPeople returns every committed person ordered by sort.
	// Failures are returned as *FetchError.
	ListPeople(ctx context.Context, sort Sort) ([]PersonRow, error)

	// ListFamilies returns every committed family ordered by name.
	// Failures are returned as *FetchError.
	ListFamilies(ctx context.Context) ([]FamilyRow, error)

	// Apply writes a change set atomically. Either every change is
	// durable afterwards or none is. Failures are returned as *SaveError.
	Apply(ctx context.Context, changes *ChangeSet) error

	// Close releases any resources held by the store.
	Close() error
}

// PersonRow is the persisted form of a models.Person.
type PersonRow struct {
	ID       string
	Name     *string
	Gender   *string
	Age      int64
	FamilyID string // empty when the person has no family
}

// FamilyRow is the persisted form of a models.Family.
// Membership lives on PersonRow.FamilyID.
type FamilyRow struct {
	ID   string
	Name *string
}

// ChangeSet is one commit worth of changes.
type ChangeSet struct {
	UpsertFamilies []FamilyRow
	UpsertPeople   []PersonRow
	DeletePeople   []string
	DeleteFamilies []string
}

// Empty reports whether the change set carries nothing to write.
func (c *ChangeSet) Empty() bool {
	return len(c.UpsertFamilies) == 0 && len(c.UpsertPeople) == 0 &&
		len(c.DeletePeople) == 0 && len(c.DeleteFamilies) == 0
}

// Sort keys accepted by ListPeople.
const (
	SortByName   = "name"
	SortByAge    = "age"
	SortByGender = "gender"
)

// Sort describes the ordering of a person fetch.
type Sort struct {
	Key       string
	Ascending bool
}

// ByName is the ordering the list uses.
var ByName = Sort{Key: SortByName, Ascending: true}

// Valid reports whether the key is one the backends know how to order by.
func (s Sort) Valid() bool {
	switch s.Key {
	case SortByName, SortByAge, SortByGender:
		return true
	}
	return false
}
