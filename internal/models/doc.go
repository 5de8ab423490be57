// Package models defines the core domain models for Roster.
//
// # Models
//
//   - Person: a person shown in the list, optionally belonging to one family
//   - Family: a named group of people
//
// Text attributes are optional and modelled as *string; a nil Name is
// distinct from an empty one. Age is a plain integer and is zero when unset.
//
// # Relationships
//
// Person.family and Family.people are two sides of one relationship. Use
// Family.AddToPeople, Family.RemoveFromPeople or Person.SetFamily to change it;
// each of them updates both sides so the graph never disagrees with itself.
//
// Models are owned by a single managed.Context and are not safe for concurrent
// use on their own.
package models
