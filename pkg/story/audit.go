package story

import (
	"os"

	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
)

// Status summarizes how far a corpus is from fully narrated.
type Status struct {
	Total    int
	Complete int
	Partial  int
	Missing  int
	Invalid  int
	// Legacy counts records still carrying a single-voice field.
	Legacy int
	// Dangling lists references whose file does not exist on disk.
	Dangling []DanglingRef
}

// DanglingRef is an audio reference pointing at a missing file.
type DanglingRef struct {
	StoryID string
	Voice   model.Gender
	Ref     string
}

// Audit inspects the corpus without modifying it.
func Audit(c *Corpus, rc config.RunConfig) Status {
	schema := NewSchema(rc.Fields)
	st := Status{Total: len(c.Stories)}

	for i, rec := range c.Stories {
		v := schema.View(i, rec)
		if len(v.Legacy) > 0 {
			st.Legacy++
		}

		complete := schema.Complete(rec)
		present := 0
		for _, g := range model.Genders {
			ref, ok := schema.Audio(rec, g)
			if !ok {
				continue
			}
			present++
			if _, err := os.Stat(rc.RefFile(ref)); err != nil {
				st.Dangling = append(st.Dangling, DanglingRef{StoryID: v.ID, Voice: g, Ref: ref})
			}
		}

		switch {
		case complete:
			st.Complete++
		case !IsValidContent(v.Body):
			st.Invalid++
		case present > 0:
			st.Partial++
		default:
			st.Missing++
		}
	}
	return st
}
