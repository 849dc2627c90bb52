package synth

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/natefinch/atomic"

	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
	"storyvoice/pkg/tracker"
	"storyvoice/pkg/tts"
)

const audioFileMode = 0o644

// SynthesisError reports a voice that could not be produced after all
// attempts. It unwraps to the last underlying error.
type SynthesisError struct {
	Voice    model.Gender
	Path     string
	Attempts int
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s voice synthesis to %s failed after %d attempt(s): %v", e.Voice, e.Path, e.Attempts, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Writer calls a provider with retries and writes the audio to disk.
type Writer struct {
	provider tts.Provider
	profiles tts.Profiles
	policy   Policy
	check    Check
	tracker  *tracker.Tracker
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewWriter creates a Writer. tracker and logger may be nil.
func NewWriter(p tts.Provider, profiles tts.Profiles, cfg config.SynthesisConfig, t *tracker.Tracker, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		provider: p,
		profiles: profiles,
		policy:   PolicyFromConfig(cfg),
		check:    Check{MinBytes: cfg.MinAudioBytes, Decode: cfg.VerifyAudio},
		tracker:  t,
		logger:   logger,
		sleep:    Sleep,
	}
}

// SynthesizeToFile produces the voice for text at dest, replacing any file
// there. It returns dest once the whole payload is on disk.
func (w *Writer) SynthesizeToFile(ctx context.Context, text string, g model.Gender, dest string) (string, error) {
	prof, ok := w.profiles[g]
	if !ok {
		return "", &SynthesisError{Voice: g, Path: dest, Err: fmt.Errorf("no profile for %s voice", g)}
	}

	maxAttempts := w.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	name := w.provider.Name()

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := w.policy.Delay(attempt - 1)
			w.logger.Warn("Retrying synthesis",
				"provider", name, "voice", g, "attempt", attempt, "max_attempts", maxAttempts,
				"delay", delay, "error", lastErr)
			w.track(func(t *tracker.Tracker) { t.TrackRetry(name) })
			if err := w.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		attempts = attempt
		start := time.Now()
		dur, err := w.attempt(ctx, text, prof, dest)
		if err == nil {
			w.logger.Debug("Synthesized voice",
				"provider", name, "voice", g, "path", dest, "audio_duration", dur,
				"elapsed", time.Since(start), "attempt", attempt)
			return dest, nil
		}

		lastErr = err
		w.track(func(t *tracker.Tracker) { t.TrackAPIFailure(name) })
		if tts.IsFatalError(err) {
			w.track(func(t *tracker.Tracker) { t.TrackFatal(name) })
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return "", &SynthesisError{Voice: g, Path: dest, Attempts: attempts, Err: lastErr}
}

func (w *Writer) attempt(ctx context.Context, text string, prof tts.Profile, dest string) (time.Duration, error) {
	audio, err := w.provider.Synthesize(ctx, text, prof)
	if err != nil {
		return 0, err
	}
	dur, err := w.check.Verify(audio)
	if err != nil {
		return 0, err
	}
	_, statErr := os.Stat(dest)
	if err := atomic.WriteFile(dest, bytes.NewReader(audio)); err != nil {
		return 0, fmt.Errorf("failed to write audio file: %w", err)
	}
	// atomic creates its temp file 0600; new assets must be world-readable.
	if os.IsNotExist(statErr) {
		if err := os.Chmod(dest, audioFileMode); err != nil {
			return 0, fmt.Errorf("failed to set audio file mode: %w", err)
		}
	}
	w.track(func(t *tracker.Tracker) { t.TrackAPISuccess(w.provider.Name(), len(audio)) })
	return dur, nil
}

func (w *Writer) track(fn func(*tracker.Tracker)) {
	if w.tracker != nil {
		fn(w.tracker)
	}
}

