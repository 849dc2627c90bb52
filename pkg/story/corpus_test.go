package story

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorpus_BareArray(t *testing.T) {
	c, err := ParseCorpus([]byte(`[{"id":"s1","title_ar":"قصة & <حكاية>","n":1.50},{"id":2}]`))
	require.NoError(t, err)
	assert.False(t, c.Wrapped())
	require.Len(t, c.Stories, 2)

	out, err := c.Marshal()
	require.NoError(t, err)
	want := `[
  {
    "id": "s1",
    "title_ar": "قصة & <حكاية>",
    "n": 1.50
  },
  {
    "id": 2
  }
]
`
	assert.Equal(t, want, string(out))
}

func TestParseCorpus_WrapperKeepsSiblings(t *testing.T) {
	c, err := ParseCorpus([]byte(`{"version":2,"stories":[{"id":1}],"meta":{"a":"b"}}`))
	require.NoError(t, err)
	assert.True(t, c.Wrapped())
	require.Len(t, c.Stories, 1)

	require.NoError(t, c.Stories[0].SetString("audio_ar_male", "data/audio/1_ar_male.mp3"))

	out, err := c.Marshal()
	require.NoError(t, err)
	want := `{
  "version": 2,
  "stories": [
    {
      "id": 1,
      "audio_ar_male": "data/audio/1_ar_male.mp3"
    }
  ],
  "meta": {
    "a": "b"
  }
}
`
	assert.Equal(t, want, string(out))
}

func TestParseCorpus_Empty(t *testing.T) {
	c, err := ParseCorpus([]byte(`{"stories":[]}`))
	require.NoError(t, err)
	assert.Empty(t, c.Stories)

	out, err := c.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"stories\": []\n}\n", string(out))

	c, err = ParseCorpus([]byte(`[]`))
	require.NoError(t, err)
	out, err = c.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))
}

func TestParseCorpus_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"Empty", ""},
		{"Scalar", `42`},
		{"Truncated", `[{"id":"s1"`},
		{"NoStoriesKey", `{"items":[]}`},
		{"StoriesNotArray", `{"stories":{"id":1}}`},
		{"NonObjectStory", `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCorpus([]byte(tt.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorpusParse)
		})
	}
}

func TestLoadCorpus_Missing(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorpusRead)
}

func TestCorpus_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stories":[{"id":"s1","content_ar":"نص"}]}`), 0o644))

	c, err := LoadCorpus(path)
	require.NoError(t, err)
	require.NoError(t, c.Stories[0].SetString("audio_ar_male", "data/audio/s1_ar_male.mp3"))
	require.NoError(t, c.Save(path))

	again, err := LoadCorpus(path)
	require.NoError(t, err)
	assert.True(t, again.Wrapped())
	ref, ok := again.Stories[0].String("audio_ar_male")
	assert.True(t, ok)
	assert.Equal(t, "data/audio/s1_ar_male.mp3", ref)
}

func TestCorpus_SaveUnwritable(t *testing.T) {
	c := &Corpus{Stories: []*Record{NewRecord()}}
	err := c.Save(filepath.Join(t.TempDir(), "missing-dir", "stories.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorpusWrite)
}
