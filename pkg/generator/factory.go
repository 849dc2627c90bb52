package generator

import (
	"context"
	"fmt"

	"storyvoice/pkg/config"
	"storyvoice/pkg/tts"
	"storyvoice/pkg/tts/azure"
	"storyvoice/pkg/tts/edgetts"
	"storyvoice/pkg/tts/googletts"
	"storyvoice/pkg/tts/playht"
)

// NewTTSProvider returns a TTS provider based on configuration.
func NewTTSProvider(ctx context.Context, cfg *config.TTSConfig, h *tts.History) (tts.Provider, error) {
	timeout := cfg.Timeout.D()
	switch cfg.Engine {
	case config.EnginePlayHT:
		return playht.NewProvider(cfg.PlayHT, timeout, h)
	case config.EngineEdgeTTS:
		return edgetts.NewProvider(cfg.EdgeTTS, timeout, h)
	case config.EngineGoogle:
		return googletts.NewProvider(ctx, cfg.Google, timeout, h)
	case config.EngineAzure:
		return azure.NewProvider(cfg.Azure, timeout, h)
	default:
		return nil, fmt.Errorf("unknown tts engine: %s", cfg.Engine)
	}
}
