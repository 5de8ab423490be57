package models

// Person is a single entry in the roster.
type Person struct {
	// ID is the stable identity assigned by the context (UUID format).
	ID string

	// Name is the display name. Nil means unset.
	Name *string

	// Gender is free text. Nil means unset.
	Gender *string

	// Age in years. Zero when unset.
	Age int64

	family *Family
}

// Family returns the family this person belongs to, or nil.
func (p *Person) Family() *Family {
	return p.family
}

// SetFamily moves the person into f, or out of any family when f is nil.
func (p *Person) SetFamily(f *Family) {
	if f == nil {
		if p.family != nil {
			p.family.RemoveFromPeople(p)
		}
		return
	}
	f.AddToPeople(p)
}

// DisplayName returns the name, or "" when unset.
func (p *Person) DisplayName() string {
	return StringValue(p.Name)
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
