package story

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
)

func TestAudit(t *testing.T) {
	rc := runConfig(t, t.TempDir(), config.DialectJordanian, config.RegisterFiction)
	require.NoError(t, rc.EnsureAudioDir())
	require.NoError(t, os.WriteFile(rc.AudioPath("j1_jordanian_male.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(rc.AudioPath("j1_jordanian_female.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(rc.AudioPath("j2_jordanian_male.mp3"), []byte("x"), 0o644))

	body := "كان يا ما كان في قديم الزمان"
	c, err := ParseCorpus([]byte(`[
		{"id":"j1","story_content":"` + body + `","audio_jordanian_male":"data/audio/jordanian/j1_jordanian_male.mp3","audio_jordanian_female":"data/audio/jordanian/j1_jordanian_female.mp3"},
		{"id":"j2","story_content":"` + body + `","audio_jordanian_male":"data/audio/jordanian/j2_jordanian_male.mp3"},
		{"id":"j3","story_content":"` + body + `"},
		{"id":"j4","story_content":"قصير"},
		{"id":"j5","story_content":"` + body + `","audio_jordanian_male":"data/audio/jordanian/gone.mp3","audio_jordanian_female":"data/audio/jordanian/j1_jordanian_female.mp3"}
	]`))
	require.NoError(t, err)

	st := Audit(c, rc)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 2, st.Complete)
	assert.Equal(t, 1, st.Partial)
	assert.Equal(t, 1, st.Missing)
	assert.Equal(t, 1, st.Invalid)
	assert.Equal(t, 0, st.Legacy)
	assert.Equal(t, []DanglingRef{{StoryID: "j5", Voice: model.Male, Ref: "data/audio/jordanian/gone.mp3"}}, st.Dangling)
}
