package story

import (
	"fmt"

	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
)

// View is the variant-independent shape of one record.
type View struct {
	Index int
	// ID is the record id, or the positional fallback story{n} when HasID
	// is false. The fallback is never written back.
	ID           string
	HasID        bool
	Body         string
	DisplayTitle string
	// Legacy lists single-voice fields present on the record.
	Legacy []string
}

// Schema maps records of one variant to and from the canonical view.
type Schema struct {
	fields config.FieldSet
}

// NewSchema returns a schema for the field set of a variant.
func NewSchema(fields config.FieldSet) Schema {
	return Schema{fields: fields}
}

// View extracts the canonical view of the record at the zero-based index.
func (s Schema) View(index int, rec *Record) View {
	v := View{Index: index}

	if id, ok := rec.ID(); ok {
		v.ID, v.HasID = id, true
	} else {
		v.ID = fmt.Sprintf("story%d", index+1)
	}

	v.Body, _, _ = rec.First(s.fields.Content)

	if t, _, ok := rec.First(s.fields.TitleAr); ok {
		v.DisplayTitle = t
	} else if t, _, ok := rec.First(s.fields.TitleEn); ok {
		v.DisplayTitle = t
	} else {
		v.DisplayTitle = fmt.Sprintf("Story %d", index+1)
	}

	for _, f := range s.fields.Legacy {
		if rec.Has(f) {
			v.Legacy = append(v.Legacy, f)
		}
	}
	return v
}

// HasAudio reports whether the voice reference field is a non-empty string.
func (s Schema) HasAudio(rec *Record, g model.Gender) bool {
	_, ok := rec.NonEmptyString(s.fields.AudioField(g))
	return ok
}

// Complete reports whether both voices are present.
func (s Schema) Complete(rec *Record) bool {
	for _, g := range model.Genders {
		if !s.HasAudio(rec, g) {
			return false
		}
	}
	return true
}

// Audio returns the stored reference for a voice.
func (s Schema) Audio(rec *Record, g model.Gender) (string, bool) {
	return rec.NonEmptyString(s.fields.AudioField(g))
}

// SetAudio stores ref in the configured field for the voice.
func (s Schema) SetAudio(rec *Record, g model.Gender, ref string) error {
	return rec.SetString(s.fields.AudioField(g), ref)
}

// DropLegacy deletes the legacy single-voice fields and returns those removed.
func (s Schema) DropLegacy(rec *Record) []string {
	var removed []string
	for _, f := range s.fields.Legacy {
		if rec.Delete(f) {
			removed = append(removed, f)
		}
	}
	return removed
}
