package managed

import (
	"github.com/mmynk/roster/internal/models"
	"github.com/mmynk/roster/internal/storage"
)

func personRow(p *models.Person) storage.PersonRow {
	row := storage.PersonRow{
		ID:     p.ID,
		Name:   copyString(p.Name),
		Gender: copyString(p.Gender),
		Age:    p.Age,
	}
	if f := p.Family(); f != nil {
		row.FamilyID = f.ID
	}
	return row
}

func familyRow(f *models.Family) storage.FamilyRow {
	return storage.FamilyRow{ID: f.ID, Name: copyString(f.Name)}
}

func personRowsEqual(a, b storage.PersonRow) bool {
	return a.ID == b.ID &&
		a.Age == b.Age &&
		a.FamilyID == b.FamilyID &&
		stringsEqual(a.Name, b.Name) &&
		stringsEqual(a.Gender, b.Gender)
}

func stringsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
