// Package managed implements the object context that sits between the list
// controller and a durable storage.Store.
//
// A Context is the in-memory working set: it hands out records, keeps one
// object per identity (so a person fetched twice is the same pointer), tracks
// what was inserted, changed or deleted since the last commit, and flushes all
// of it to the store in one atomic Apply when Save is called.
//
// Changes are visible on the objects immediately but only become durable
// once Save succeeds. A failed Save keeps every pending change in memory;
// the caller decides whether to retry, Rollback or carry on.
//
// A Context has a single owner. Its bookkeeping is guarded by a mutex so the
// two sides of a relationship are always updated together.
package managed
