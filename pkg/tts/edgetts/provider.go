package edgetts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"storyvoice/pkg/config"
	"storyvoice/pkg/tts"
)

const outputFormat = "audio-24khz-48kbitrate-mono-mp3"

// Provider implements tts.Provider for Microsoft Edge TTS.
type Provider struct {
	cfg     config.EdgeTTSConfig
	dialer  *websocket.Dialer
	history *tts.History
	now     func() time.Time
}

// NewProvider creates a new Edge TTS provider. All connection parameters are
// required; they normally come from the environment.
func NewProvider(cfg config.EdgeTTSConfig, timeout time.Duration, h *tts.History) (*Provider, error) {
	required := []struct{ name, value string }{
		{"base_url (EDGE_TTS_BASE_URL)", cfg.BaseURL},
		{"origin (EDGE_TTS_ORIGIN)", cfg.Origin},
		{"user_agent (EDGE_TTS_USER_AGENT)", cfg.UserAgent},
		{"trusted_client_token (EDGE_TTS_TRUSTED_CLIENT_TOKEN)", cfg.TrustedClientToken},
		{"sec_ms_gec_version (EDGE_TTS_SEC_MS_GEC_VERSION)", cfg.SecMSGecVersion},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("edge-tts settings missing: %s", strings.Join(missing, ", "))
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = timeout
	return &Provider{
		cfg:     cfg,
		dialer:  &dialer,
		history: h,
		now:     time.Now,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return config.EngineEdgeTTS }

// Synthesize streams MP3 audio for text over the Edge websocket.
func (p *Provider) Synthesize(ctx context.Context, text string, prof tts.Profile) ([]byte, error) {
	if prof.VoiceID == "" {
		return nil, fmt.Errorf("voice ID is required")
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := p.sendConfig(conn); err != nil {
		return nil, err
	}

	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	ssml := tts.BuildSSML(prof.Language, prof.VoiceID, text)
	if err := p.sendSSML(conn, ssml, requestID); err != nil {
		return nil, err
	}

	var audio bytes.Buffer
	if err := p.consumeResponses(ctx, conn, &audio); err != nil {
		p.history.Log("EDGETTS", ssml, 0, err)
		return nil, err
	}
	if audio.Len() == 0 {
		p.history.Log("EDGETTS", ssml, 0, fmt.Errorf("no audio"))
		return nil, fmt.Errorf("edge-tts returned no audio")
	}

	p.history.Log("EDGETTS", ssml, http.StatusOK, nil)
	return audio.Bytes(), nil
}

func (p *Provider) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Origin", p.cfg.Origin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("User-Agent", p.cfg.UserAgent)
	header.Set("Accept-Language", "en-US,en;q=0.9")

	// MUID Cookie
	muid := strings.ReplaceAll(uuid.New().String(), "-", "")
	header.Set("Cookie", fmt.Sprintf("muid=%s", muid))

	q := url.Values{}
	q.Set("TrustedClientToken", p.cfg.TrustedClientToken)
	q.Set("Sec-MS-GEC", p.generateSecMSGec(p.cfg.TrustedClientToken))
	q.Set("Sec-MS-GEC-Version", p.cfg.SecMSGecVersion)
	endpoint := p.cfg.BaseURL + "?" + q.Encode()

	var dialErr error
	for i := 0; i < 3; i++ {
		conn, resp, err := p.dialer.DialContext(ctx, endpoint, header)
		if err == nil {
			return conn, nil
		}
		dialErr = err
		if resp != nil {
			slog.Warn("EdgeTTS: handshake failure", "status", resp.Status, "status_code", resp.StatusCode)
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, tts.NewFatalError(resp.StatusCode, fmt.Sprintf("edge-tts handshake rejected: %s", resp.Status))
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("websocket dial failed after retries: %w", dialErr)
}

// generateSecMSGec derives the rolling Sec-MS-GEC token: Windows file time
// ticks rounded down to five minutes, concatenated with the client token.
func (p *Provider) generateSecMSGec(trustedClientToken string) string {
	ticks := p.now().UTC().Unix() + 11644473600
	ticks -= ticks % 300

	strToHash := fmt.Sprintf("%d0000000%s", ticks, trustedClientToken)

	hash := sha256.Sum256([]byte(strToHash))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

func (p *Provider) sendConfig(conn *websocket.Conn) error {
	configMsg := "Content-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n{\"context\":{\"synthesis\":{\"audio\":{\"metadataoptions\":{\"sentenceBoundaryEnabled\":\"false\",\"wordBoundaryEnabled\":\"false\"},\"outputFormat\":\"" + outputFormat + "\"}}}}"
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

func (p *Provider) sendSSML(conn *websocket.Conn, ssml, requestID string) error {
	ssmlMsg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s", requestID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return fmt.Errorf("failed to send ssml: %w", err)
	}
	return nil
}

func (p *Provider) consumeResponses(ctx context.Context, conn *websocket.Conn, w io.Writer) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message failed: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return nil
			}
		case websocket.BinaryMessage:
			if err := p.handleBinaryMessage(data, w); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// handleBinaryMessage strips the two-byte length-prefixed header of an
// audio frame and writes the payload.
func (p *Provider) handleBinaryMessage(data []byte, w io.Writer) error {
	if len(data) < 2 {
		return nil
	}
	headerLength := int(uint16(data[0])<<8 | uint16(data[1]))
	if len(data) < 2+headerLength {
		return nil
	}
	audioData := data[2+headerLength:]
	if len(audioData) > 0 {
		if _, err := w.Write(audioData); err != nil {
			return fmt.Errorf("write audio data failed: %w", err)
		}
	}
	return nil
}

// Voices returns the Arabic neural voices.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	voices := []tts.Voice{
		{ID: "ar-SA-HamedNeural", Name: "Hamed (Saudi Arabia)", Language: "ar-SA", Gender: "male", IsNeural: true},
		{ID: "ar-SA-ZariyahNeural", Name: "Zariyah (Saudi Arabia)", Language: "ar-SA", Gender: "female", IsNeural: true},
		{ID: "ar-EG-ShakirNeural", Name: "Shakir (Egypt)", Language: "ar-EG", Gender: "male", IsNeural: true},
		{ID: "ar-EG-SalmaNeural", Name: "Salma (Egypt)", Language: "ar-EG", Gender: "female", IsNeural: true},
		{ID: "ar-JO-TaimNeural", Name: "Taim (Jordan)", Language: "ar-JO", Gender: "male", IsNeural: true},
		{ID: "ar-JO-SanaNeural", Name: "Sana (Jordan)", Language: "ar-JO", Gender: "female", IsNeural: true},
		{ID: "ar-AE-HamdanNeural", Name: "Hamdan (UAE)", Language: "ar-AE", Gender: "male", IsNeural: true},
		{ID: "ar-AE-FatimaNeural", Name: "Fatima (UAE)", Language: "ar-AE", Gender: "female", IsNeural: true},
	}
	for i := range voices {
		voices[i].Engine = config.EngineEdgeTTS
	}
	return voices, nil
}
