package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
)

// FormatMP3 is the only output format the corpus stores.
const FormatMP3 = "mp3"

// Provider defines the interface for Text-To-Speech engines.
type Provider interface {
	// Name identifies the engine in logs and usage stats.
	Name() string

	// Synthesize returns the complete audio payload for text spoken by the
	// profile's voice. A nil error means the whole payload was received.
	Synthesize(ctx context.Context, text string, p Profile) ([]byte, error)

	// Voices returns the voices the provider offers.
	Voices(ctx context.Context) ([]Voice, error)
}

// Profile is the fixed parameter set of one logical voice.
type Profile struct {
	Gender   model.Gender
	VoiceID  string
	Engine   string
	Language string
	Format   string
}

// Profiles binds each logical voice to its provider parameters.
type Profiles map[model.Gender]Profile

// NewProfiles builds the male and female profiles for one engine.
func NewProfiles(voices config.VoicePair, engine, language string) (Profiles, error) {
	ids := map[model.Gender]string{model.Male: voices.Male, model.Female: voices.Female}

	out := make(Profiles, len(ids))
	for _, g := range model.Genders {
		if strings.TrimSpace(ids[g]) == "" {
			return nil, fmt.Errorf("no %s voice configured", g)
		}
		out[g] = Profile{
			Gender:   g,
			VoiceID:  ids[g],
			Engine:   engine,
			Language: language,
			Format:   FormatMP3,
		}
	}
	return out, nil
}

// ProfilesFor returns the voice table of the configured engine.
func ProfilesFor(cfg *config.TTSConfig) (Profiles, error) {
	switch cfg.Engine {
	case config.EnginePlayHT:
		return NewProfiles(cfg.PlayHT.Voices, cfg.PlayHT.Engine, cfg.PlayHT.Language)
	case config.EngineEdgeTTS:
		return NewProfiles(cfg.EdgeTTS.Voices, config.EngineEdgeTTS, cfg.EdgeTTS.Language)
	case config.EngineGoogle:
		return NewProfiles(cfg.Google.Voices, config.EngineGoogle, cfg.Google.LanguageCode)
	case config.EngineAzure:
		return NewProfiles(cfg.Azure.Voices, config.EngineAzure, cfg.Azure.Language)
	default:
		return nil, fmt.Errorf("unknown tts engine %q", cfg.Engine)
	}
}

// Voice represents an available TTS voice.
type Voice struct {
	ID       string
	Name     string
	Language string
	Gender   string
	Engine   string
	Tags     []string
	IsNeural bool
}

// IsArabic reports whether the voice advertises Arabic in its name,
// language or tags.
func (v Voice) IsArabic() bool {
	if containsArab(v.Name) || containsArab(v.Language) || hasArabicPrefix(v.Language) {
		return true
	}
	for _, tag := range v.Tags {
		if containsArab(tag) || strings.EqualFold(tag, "ar") || hasArabicPrefix(tag) {
			return true
		}
	}
	return false
}

func containsArab(s string) bool {
	return strings.Contains(strings.ToLower(s), "arab")
}

// hasArabicPrefix matches locale codes such as ar-SA or ar_EG.
func hasArabicPrefix(s string) bool {
	s = strings.ToLower(s)
	return s == "ar" || strings.HasPrefix(s, "ar-") || strings.HasPrefix(s, "ar_")
}

// FilterArabic keeps the voices for which IsArabic holds.
func FilterArabic(voices []Voice) []Voice {
	var out []Voice
	for _, v := range voices {
		if v.IsArabic() {
			out = append(out, v)
		}
	}
	return out
}

// FatalError is a provider error that retrying cannot fix.
// Examples: auth failures (401/403), exhausted quota.
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	return e.Message
}

// NewFatalError creates a new FatalError with the given status code and message.
func NewFatalError(statusCode int, message string) *FatalError {
	return &FatalError{StatusCode: statusCode, Message: message}
}

// IsFatalError checks if an error, or any error it wraps, is a FatalError.
func IsFatalError(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
