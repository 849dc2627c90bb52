package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyvoice/pkg/config"
	"storyvoice/pkg/tts"
)

const (
	synthesizePath = "/cognitiveservices/v1"
	voicesPath     = "/cognitiveservices/voices/list"
	outputFormat   = "audio-24khz-160kbitrate-mono-mp3"
)

// Provider implements tts.Provider for Azure Speech.
type Provider struct {
	key     string
	url     string
	client  *http.Client
	history *tts.History
}

// NewProvider creates a new Azure Speech TTS provider. The endpoint
// defaults to the regional speech host.
func NewProvider(cfg config.AzureSpeechConfig, timeout time.Duration, h *tts.History) (*Provider, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("azure speech key missing: set tts.azure.key or AZURE_SPEECH_KEY")
	}
	url := strings.TrimRight(cfg.Endpoint, "/")
	if url == "" {
		if cfg.Region == "" {
			return nil, fmt.Errorf("azure speech region missing: set tts.azure.region or AZURE_SPEECH_REGION")
		}
		url = fmt.Sprintf("https://%s.tts.speech.microsoft.com", cfg.Region)
	}
	return &Provider{
		key:     cfg.Key,
		url:     url,
		client:  &http.Client{Timeout: timeout},
		history: h,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return config.EngineAzure }

// Synthesize generates speech from text using Azure Speech.
func (p *Provider) Synthesize(ctx context.Context, text string, prof tts.Profile) ([]byte, error) {
	if prof.VoiceID == "" {
		return nil, fmt.Errorf("no voice ID configured for Azure Speech %s voice", prof.Gender)
	}

	ssml := tts.BuildSSML(prof.Language, prof.VoiceID, text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+synthesizePath, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "storyvoice")

	resp, err := p.client.Do(req)
	if err != nil {
		p.history.Log("AZURE", ssml, 0, err)
		return nil, fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.history.Log("AZURE", ssml, resp.StatusCode, nil)
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := string(body)
		if err != nil {
			bodyStr = fmt.Sprintf("[failed to read body: %v]", err)
		}
		if bodyStr == "" {
			bodyStr = "[empty body]"
		}

		errMsg := fmt.Sprintf("azure speech api error (status %d): %s", resp.StatusCode, bodyStr)
		if retryable(resp.StatusCode) {
			return nil, errors.New(errMsg)
		}
		return nil, tts.NewFatalError(resp.StatusCode, errMsg)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		p.history.Log("AZURE", ssml, resp.StatusCode, err)
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("received empty audio from azure speech")
	}

	p.history.Log("AZURE", ssml, resp.StatusCode, nil)
	return audio, nil
}

// Throttling and server errors are transient. Anything else in the 4xx range
// (bad SSML, bad key, unknown voice) fails the same way on every attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500
}

type voiceResponse struct {
	ShortName   string `json:"ShortName"`
	DisplayName string `json:"DisplayName"`
	LocalName   string `json:"LocalName"`
	Locale      string `json:"Locale"`
	Gender      string `json:"Gender"`
	VoiceType   string `json:"VoiceType"`
}

// Voices fetches the regional voice list.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+voicesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voices request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, tts.NewFatalError(resp.StatusCode, fmt.Sprintf("azure voices error (status %d): %s", resp.StatusCode, string(body)))
	}

	var raw []voiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode voices: %w", err)
	}

	voices := make([]tts.Voice, 0, len(raw))
	for _, v := range raw {
		name := v.DisplayName
		if v.LocalName != "" && v.LocalName != v.DisplayName {
			name = fmt.Sprintf("%s (%s)", v.DisplayName, v.LocalName)
		}
		voices = append(voices, tts.Voice{
			ID:       v.ShortName,
			Name:     name,
			Language: v.Locale,
			Gender:   strings.ToLower(v.Gender),
			Engine:   config.EngineAzure,
			IsNeural: v.VoiceType == "Neural",
		})
	}
	return voices, nil
}
