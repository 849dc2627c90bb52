package story

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
)

func mustRecord(t *testing.T, s string) *Record {
	t.Helper()
	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(s), rec))
	return rec
}

func runConfig(t *testing.T, root, dialect, register string) config.RunConfig {
	t.Helper()
	rc, err := config.ResolveVariant(root, dialect, register)
	require.NoError(t, err)
	return rc
}

func TestSchema_View(t *testing.T) {
	msa := NewSchema(runConfig(t, "assets", config.DialectMSA, config.RegisterFiction).Fields)
	egy := NewSchema(runConfig(t, "assets", config.DialectEgyptian, config.RegisterFiction).Fields)

	tests := []struct {
		name   string
		schema Schema
		index  int
		rec    string
		want   View
	}{
		{
			name:   "SnakeCase",
			schema: msa,
			rec:    `{"id":"s1","content_ar":"نص","title_ar":"عنوان","title_en":"Title"}`,
			want:   View{Index: 0, ID: "s1", HasID: true, Body: "نص", DisplayTitle: "عنوان"},
		},
		{
			name:   "CamelCaseFallback",
			schema: msa,
			index:  1,
			rec:    `{"id":7,"content_ar":"","contentAr":"نص","titleEn":"Title"}`,
			want:   View{Index: 1, ID: "7", HasID: true, Body: "نص", DisplayTitle: "Title"},
		},
		{
			name:   "PositionalFallbacks",
			schema: msa,
			index:  4,
			rec:    `{"contentAr":"نص","audio_ar":"old.mp3"}`,
			want:   View{Index: 4, ID: "story5", Body: "نص", DisplayTitle: "Story 5", Legacy: []string{"audio_ar"}},
		},
		{
			name:   "EgyptianPrefersStoryContent",
			schema: egy,
			rec:    `{"id":"e1","content_ar":"فصحى","story_content":"عامية","story_title":"حكاية"}`,
			want:   View{Index: 0, ID: "e1", HasID: true, Body: "عامية", DisplayTitle: "حكاية"},
		},
		{
			name:   "NonStringBody",
			schema: msa,
			rec:    `{"id":"s2","content_ar":42}`,
			want:   View{Index: 0, ID: "s2", HasID: true, DisplayTitle: "Story 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.schema.View(tt.index, mustRecord(t, tt.rec))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchema_AudioFields(t *testing.T) {
	fiction := NewSchema(runConfig(t, "assets", config.DialectMSA, config.RegisterFiction).Fields)
	nonfiction := NewSchema(runConfig(t, "assets", config.DialectMSA, config.RegisterNonfiction).Fields)

	rec := mustRecord(t, `{"id":"s1","audio_ar_male":"data/audio/s1_ar_male.mp3","audio_ar_female":""}`)

	assert.True(t, fiction.HasAudio(rec, model.Male))
	assert.False(t, fiction.HasAudio(rec, model.Female), "empty string is missing")
	assert.False(t, fiction.Complete(rec))
	assert.False(t, nonfiction.HasAudio(rec, model.Male), "fields are per variant")

	require.NoError(t, nonfiction.SetAudio(rec, model.Female, "data/audio/nonfiction/x.mp3"))
	assert.True(t, rec.Has("audioArFemale"))
	assert.False(t, fiction.HasAudio(rec, model.Female))

	require.NoError(t, fiction.SetAudio(rec, model.Female, "data/audio/s1_ar_female.mp3"))
	assert.True(t, fiction.Complete(rec))
}

func TestSchema_DropLegacy(t *testing.T) {
	msa := NewSchema(runConfig(t, "assets", config.DialectMSA, config.RegisterFiction).Fields)
	jor := NewSchema(runConfig(t, "assets", config.DialectJordanian, config.RegisterFiction).Fields)

	rec := mustRecord(t, `{"id":"s1","audio_ar":"a.mp3","audioAr":"b.mp3"}`)

	assert.Empty(t, jor.DropLegacy(rec), "jordanian corpora have no legacy field")
	assert.Equal(t, []string{"audio_ar", "audioAr"}, msa.DropLegacy(rec))
	assert.Equal(t, []string{"id"}, rec.Keys())
}
