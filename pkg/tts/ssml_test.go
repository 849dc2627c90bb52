package tts

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBuildSSML(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		voice    string
		text     string
		expected []string // Substrings that must be present
	}{
		{
			name:     "Arabic text",
			lang:     "ar-SA",
			voice:    "ar-SA-HamedNeural",
			text:     "كان يا ما كان",
			expected: []string{"كان يا ما كان", "ar-SA-HamedNeural", "xml:lang='ar-SA'"},
		},
		{
			name:     "Default language",
			voice:    "ar-SA-ZariyahNeural",
			text:     "مرحبا",
			expected: []string{"xml:lang='ar-SA'"},
		},
		{
			name:     "Text with ampersand",
			lang:     "ar-EG",
			voice:    "ar-EG-SalmaNeural",
			text:     "Ben & Jerry's",
			expected: []string{"Ben &amp; Jerry&apos;s"},
		},
		{
			name:     "Text with tags",
			lang:     "ar-SA",
			voice:    "v",
			text:     "<speak>مرحبا</speak>",
			expected: []string{"&lt;speak&gt;مرحبا&lt;/speak&gt;"},
		},
		{
			name:     "Text with quotes",
			lang:     "ar-SA",
			voice:    "v",
			text:     `قال "مرحبا"`,
			expected: []string{`قال &quot;مرحبا&quot;`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSSML(tt.lang, tt.voice, tt.text)
			for _, exp := range tt.expected {
				if !strings.Contains(got, exp) {
					t.Errorf("BuildSSML() = %v, expected to contain %v", got, exp)
				}
			}

			dec := xml.NewDecoder(strings.NewReader(got))
			for {
				_, err := dec.Token()
				if err != nil {
					if !errors.Is(err, io.EOF) {
						t.Errorf("BuildSSML() produced malformed XML: %v", err)
					}
					break
				}
			}
		})
	}
}
