package playht

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyvoice/pkg/config"
	"storyvoice/pkg/tts"
)

const (
	streamPath = "/api/v2/tts/stream"
	voicesPath = "/api/v2/voices"
)

// Provider implements tts.Provider for the PlayHT streaming API.
type Provider struct {
	baseURL string
	userID  string
	apiKey  string
	client  *http.Client
	history *tts.History
}

// NewProvider creates a new PlayHT TTS provider.
func NewProvider(cfg config.PlayHTConfig, timeout time.Duration, h *tts.History) (*Provider, error) {
	if cfg.UserID == "" || cfg.Key == "" {
		return nil, fmt.Errorf("playht credentials missing: set tts.playht.user_id/key or PLAYHT_USER_ID/PLAYHT_API_KEY")
	}
	return &Provider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		userID:  cfg.UserID,
		apiKey:  cfg.Key,
		client:  &http.Client{Timeout: timeout},
		history: h,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return config.EnginePlayHT }

// requestBody represents the JSON payload for PlayHT TTS.
type requestBody struct {
	Text         string `json:"text"`
	Voice        string `json:"voice"`
	VoiceEngine  string `json:"voice_engine"`
	Language     string `json:"language,omitempty"`
	OutputFormat string `json:"output_format"`
}

// Synthesize generates speech from text using PlayHT.
func (p *Provider) Synthesize(ctx context.Context, text string, prof tts.Profile) ([]byte, error) {
	if prof.VoiceID == "" {
		return nil, fmt.Errorf("no voice ID configured for PlayHT %s voice", prof.Gender)
	}

	format := prof.Format
	if format == "" {
		format = tts.FormatMP3
	}
	jsonData, err := json.Marshal(requestBody{
		Text:         text,
		Voice:        prof.VoiceID,
		VoiceEngine:  prof.Engine,
		Language:     prof.Language,
		OutputFormat: format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+streamPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	logContent := fmt.Sprintf("VOICE: %s (%s)\nPAYLOAD:\n%s", prof.Gender, prof.VoiceID, text)

	resp, err := p.client.Do(req)
	if err != nil {
		p.history.Log("PLAYHT", logContent, 0, err)
		return nil, fmt.Errorf("playht request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.history.Log("PLAYHT", logContent, resp.StatusCode, nil)

		// Fast Fail on Auth Errors
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, tts.NewFatalError(resp.StatusCode, fmt.Sprintf("PlayHT auth failed: %s", strings.TrimSpace(string(body))))
		}
		return nil, fmt.Errorf("playht api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		p.history.Log("PLAYHT", logContent, resp.StatusCode, err)
		return nil, fmt.Errorf("failed to read audio stream: %w", err)
	}
	if len(audio) == 0 {
		p.history.Log("PLAYHT", "Received empty audio (0 bytes)", resp.StatusCode, nil)
		return nil, fmt.Errorf("received empty audio from playht")
	}

	p.history.Log("PLAYHT", logContent, resp.StatusCode, nil)
	return audio, nil
}

func (p *Provider) authorize(req *http.Request) {
	req.Header.Set("AUTHORIZATION", p.apiKey)
	req.Header.Set("X-USER-ID", p.userID)
}

type voiceResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Language     string `json:"language"`
	LanguageCode string `json:"language_code"`
	Gender       string `json:"gender"`
	VoiceEngine  string `json:"voice_engine"`
	Accent       string `json:"accent"`
}

// Voices fetches the stock voice catalogue.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+voicesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playht voices request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, tts.NewFatalError(resp.StatusCode, fmt.Sprintf("PlayHT auth failed: %s", strings.TrimSpace(string(body))))
		}
		return nil, fmt.Errorf("playht voices error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw []voiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode voices: %w", err)
	}

	voices := make([]tts.Voice, 0, len(raw))
	for _, v := range raw {
		var tags []string
		for _, t := range []string{v.LanguageCode, v.Accent} {
			if t != "" {
				tags = append(tags, t)
			}
		}
		voices = append(voices, tts.Voice{
			ID:       v.ID,
			Name:     v.Name,
			Language: v.Language,
			Gender:   v.Gender,
			Engine:   v.VoiceEngine,
			Tags:     tags,
			IsNeural: strings.HasPrefix(v.ID, "s3://"),
		})
	}
	return voices, nil
}
