package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyvoice/pkg/config"
)

func TestFixPaths(t *testing.T) {
	rc := runConfig(t, "assets", config.DialectMSA, config.RegisterFiction)

	c, err := ParseCorpus([]byte(`{"stories":[
		{"id":"s1","audio_ar_male":"assets/data/audio/s1_ar_male.mp3","audio_ar_female":"data/audio/s1_ar_female.mp3"},
		{"id":"s2","audio_ar_male":"/audio/old.mp3"},
		{"id":"s3","audio_ar_female":""}
	]}`))
	require.NoError(t, err)

	fixes := FixPaths(c, rc)
	require.Len(t, fixes, 2)

	assert.Equal(t, PathFix{
		StoryID: "s1", Field: "audio_ar_male",
		Old: "assets/data/audio/s1_ar_male.mp3", New: "data/audio/s1_ar_male.mp3",
	}, fixes[0])
	assert.Equal(t, "s2", fixes[1].StoryID)
	assert.Equal(t, "data/audio/s2_ar_male.mp3", fixes[1].New)

	assert.False(t, c.Stories[1].Has("audio_ar_female"), "absent fields are not created")
	v, _ := c.Stories[2].String("audio_ar_female")
	assert.Empty(t, v, "empty fields are left alone")

	assert.Empty(t, FixPaths(c, rc), "second pass is a no-op")
}

func TestFixPaths_SkipsUnsafeIDs(t *testing.T) {
	rc := runConfig(t, "assets", config.DialectMSA, config.RegisterFiction)

	c, err := ParseCorpus([]byte(`[{"id":"../s1","audio_ar_male":"/audio/old.mp3"}]`))
	require.NoError(t, err)

	assert.Empty(t, FixPaths(c, rc))
	ref, _ := c.Stories[0].String("audio_ar_male")
	assert.Equal(t, "/audio/old.mp3", ref)
}
