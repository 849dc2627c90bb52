package synth

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2/mp3"
)

// Check validates an audio payload before it is written.
type Check struct {
	MinBytes int
	// Decode parses the payload as MP3 and measures its duration.
	Decode bool
}

type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

// Verify returns the decoded duration, or zero when decoding is disabled.
func (c Check) Verify(audio []byte) (time.Duration, error) {
	if len(audio) == 0 {
		return 0, fmt.Errorf("empty audio payload")
	}
	if len(audio) < c.MinBytes {
		return 0, fmt.Errorf("audio payload too small: %d bytes (min %d)", len(audio), c.MinBytes)
	}
	if !c.Decode {
		return 0, nil
	}

	streamer, format, err := mp3.Decode(readSeekCloser{bytes.NewReader(audio)})
	if err != nil {
		return 0, fmt.Errorf("audio payload is not valid mp3: %w", err)
	}
	defer streamer.Close()

	n := streamer.Len()
	if n <= 0 {
		return 0, fmt.Errorf("audio payload has no samples")
	}
	return format.SampleRate.D(n), nil
}
