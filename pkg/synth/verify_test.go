package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_Verify(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := Check{}.Verify(nil)
		assert.Error(t, err)
	})

	t.Run("TooSmall", func(t *testing.T) {
		_, err := Check{MinBytes: 1024}.Verify(make([]byte, 512))
		assert.Error(t, err)
	})

	t.Run("SizeOnly", func(t *testing.T) {
		d, err := Check{MinBytes: 1024}.Verify(make([]byte, 2048))
		require.NoError(t, err)
		assert.Zero(t, d)
	})

	t.Run("NotMP3", func(t *testing.T) {
		_, err := Check{Decode: true}.Verify(make([]byte, 4096))
		assert.Error(t, err)
	})
}
