package story

import (
	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
)

// PathFix records one rewritten reference field.
type PathFix struct {
	StoryID string
	Field   string
	Old     string
	New     string
}

// FixPaths rewrites every populated audio reference to the canonical
// {prefix}{file} form of the run configuration. Empty or absent references
// are left alone. The corpus is modified in place.
func FixPaths(c *Corpus, rc config.RunConfig) []PathFix {
	schema := NewSchema(rc.Fields)

	var fixes []PathFix
	for i, rec := range c.Stories {
		v := schema.View(i, rec)
		if config.CheckStoryID(v.ID) != nil {
			continue
		}
		for _, g := range model.Genders {
			old, ok := schema.Audio(rec, g)
			if !ok {
				continue
			}
			want := rc.RefPath(rc.FileName(v.ID, g))
			if old == want {
				continue
			}
			if err := schema.SetAudio(rec, g, want); err != nil {
				continue
			}
			fixes = append(fixes, PathFix{
				StoryID: v.ID,
				Field:   rc.Fields.AudioField(g),
				Old:     old,
				New:     want,
			})
		}
	}
	return fixes
}
