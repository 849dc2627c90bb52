package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyvoice/pkg/config"
)

func TestNewTTSProvider(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *config.TTSConfig)
		wantName string
		wantErr  bool
	}{
		{
			name: "PlayHT",
			mutate: func(c *config.TTSConfig) {
				c.PlayHT.UserID, c.PlayHT.Key = "u", "k"
			},
			wantName: config.EnginePlayHT,
		},
		{
			name:    "PlayHT Missing Credentials",
			mutate:  func(c *config.TTSConfig) {},
			wantErr: true,
		},
		{
			name: "Edge",
			mutate: func(c *config.TTSConfig) {
				c.Engine = config.EngineEdgeTTS
				c.EdgeTTS.BaseURL = "wss://example.invalid/edge"
				c.EdgeTTS.Origin = "o"
				c.EdgeTTS.UserAgent = "ua"
				c.EdgeTTS.TrustedClientToken = "t"
				c.EdgeTTS.SecMSGecVersion = "v"
			},
			wantName: config.EngineEdgeTTS,
		},
		{
			name: "Google",
			mutate: func(c *config.TTSConfig) {
				c.Engine = config.EngineGoogle
				c.Google.Endpoint = "http://localhost:1/"
			},
			wantName: config.EngineGoogle,
		},
		{
			name: "Azure",
			mutate: func(c *config.TTSConfig) {
				c.Engine = config.EngineAzure
				c.Azure.Key, c.Azure.Region = "k", "westeurope"
			},
			wantName: config.EngineAzure,
		},
		{
			name:    "Unknown",
			mutate:  func(c *config.TTSConfig) { c.Engine = "sapi" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig().TTS
			tt.mutate(&cfg)

			p, err := NewTTSProvider(context.Background(), &cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}
