package story

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTripPreservesOrder(t *testing.T) {
	in := `{"zeta":1,"id":"s1","alpha":{"nested":[1,2]},"price":1.50,"flag":null}`

	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(in), rec))

	assert.Equal(t, []string{"zeta", "id", "alpha", "price", "flag"}, rec.Keys())

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestRecord_RejectsNonObject(t *testing.T) {
	rec := NewRecord()
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), rec))
	assert.Error(t, json.Unmarshal([]byte(`"text"`), rec))
}

func TestRecord_StringAccessors(t *testing.T) {
	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":"","c":3,"d":null}`), rec))

	s, ok := rec.String("a")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = rec.String("b")
	assert.True(t, ok)
	_, ok = rec.NonEmptyString("b")
	assert.False(t, ok)

	_, ok = rec.String("c")
	assert.False(t, ok, "numbers are not strings")
	_, ok = rec.String("d")
	assert.False(t, ok)
	_, ok = rec.String("missing")
	assert.False(t, ok)

	v, field, ok := rec.First([]string{"missing", "b", "c", "a"})
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, "a", field)

	_, _, ok = rec.First([]string{"b", "c"})
	assert.False(t, ok)
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{`{"id":"s7"}`, "s7", true},
		{`{"id":42}`, "42", true},
		{`{"id":""}`, "", false},
		{`{"id":null}`, "", false},
		{`{"id":true}`, "", false},
		{`{"title":"x"}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rec := NewRecord()
			require.NoError(t, json.Unmarshal([]byte(tt.in), rec))
			got, ok := rec.ID()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_SetAndDelete(t *testing.T) {
	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s1","audio_ar":"old.mp3","title":"t"}`), rec))

	require.NoError(t, rec.SetString("title", "<قصة>"))
	require.NoError(t, rec.SetString("audio_ar_male", "data/audio/s1_ar_male.mp3"))
	assert.True(t, rec.Delete("audio_ar"))
	assert.False(t, rec.Delete("audio_ar"))

	out, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"id":"s1","title":"<قصة>","audio_ar_male":"data/audio/s1_ar_male.mp3"}`, string(out))
}
