package tts

import (
	"fmt"
	"strings"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// BuildSSML wraps plain text in a single-voice SSML document.
func BuildSSML(lang, voice, text string) string {
	if lang == "" {
		lang = "ar-SA"
	}
	return fmt.Sprintf("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'>%s</voice></speak>",
		xmlEscaper.Replace(lang), xmlEscaper.Replace(voice), xmlEscaper.Replace(text))
}
