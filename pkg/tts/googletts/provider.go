package googletts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"

	"storyvoice/pkg/config"
	"storyvoice/pkg/tts"
)

// Provider implements tts.Provider for Google Cloud Text-to-Speech.
type Provider struct {
	svc          *texttospeech.Service
	languageCode string
	timeout      time.Duration
	history      *tts.History
}

// NewProvider creates a Cloud Text-to-Speech client. An API key takes
// precedence over a credentials file; with neither, application default
// credentials are used unless a custom endpoint is set.
func NewProvider(ctx context.Context, cfg config.GoogleTTSConfig, timeout time.Duration, h *tts.History) (*Provider, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Key != "":
		opts = append(opts, option.WithAPIKey(cfg.Key))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google tts client: %w", err)
	}
	return &Provider{
		svc:          svc,
		languageCode: cfg.LanguageCode,
		timeout:      timeout,
		history:      h,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return config.EngineGoogle }

// Synthesize requests MP3 audio for text.
func (p *Provider) Synthesize(ctx context.Context, text string, prof tts.Profile) ([]byte, error) {
	if prof.VoiceID == "" {
		return nil, fmt.Errorf("no voice configured for google %s voice", prof.Gender)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	lang := prof.Language
	if lang == "" {
		lang = p.languageCode
	}
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: lang,
			Name:         prof.VoiceID,
			SsmlGender:   strings.ToUpper(string(prof.Gender)),
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}

	logContent := fmt.Sprintf("VOICE: %s (%s)\nPAYLOAD:\n%s", prof.Gender, prof.VoiceID, text)

	resp, err := p.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		p.history.Log("GOOGLE", logContent, statusOf(err), err)
		return nil, classify(err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("received empty audio from google tts")
	}

	p.history.Log("GOOGLE", logContent, resp.HTTPStatusCode, nil)
	return audio, nil
}

// Voices lists the voices for the configured language code.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	call := p.svc.Voices.List()
	if p.languageCode != "" {
		call = call.LanguageCode(p.languageCode)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	voices := make([]tts.Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		lang := ""
		if len(v.LanguageCodes) > 0 {
			lang = v.LanguageCodes[0]
		}
		voices = append(voices, tts.Voice{
			ID:       v.Name,
			Name:     v.Name,
			Language: lang,
			Gender:   strings.ToLower(v.SsmlGender),
			Engine:   config.EngineGoogle,
			Tags:     v.LanguageCodes,
			IsNeural: strings.Contains(v.Name, "Wavenet") || strings.Contains(v.Name, "Neural"),
		})
	}
	return voices, nil
}

func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// classify marks errors that retrying cannot fix as fatal.
func classify(err error) error {
	switch code := statusOf(err); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusBadRequest:
		return tts.NewFatalError(code, fmt.Sprintf("google tts rejected request: %v", err))
	default:
		return fmt.Errorf("google tts request failed: %w", err)
	}
}
