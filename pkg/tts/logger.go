package tts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"storyvoice/pkg/config"
)

// History appends provider requests and their outcome to a plain-text log.
// A nil *History discards everything.
type History struct {
	mu         sync.Mutex
	path       string
	errorsOnly bool
	now        func() time.Time
}

// NewHistory returns a history writer for the configured TTS log.
// Levels WARN and ERROR keep only failed requests.
func NewHistory(cfg config.LogSettings) *History {
	if cfg.Path == "" {
		return nil
	}
	level := strings.ToUpper(strings.TrimSpace(cfg.Level))
	return &History{
		path:       cfg.Path,
		errorsOnly: level == "WARN" || level == "ERROR",
		now:        time.Now,
	}
}

// Log appends the prompt and status for one provider request.
func (h *History) Log(provider, prompt string, status int, err error) {
	if h == nil || (h.errorsOnly && err == nil && (status == 0 || status < 400)) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_ = os.MkdirAll(filepath.Dir(h.path), 0o755)

	f, fileErr := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if fileErr != nil {
		return
	}
	defer f.Close()

	timestamp := h.now().Format("2006-01-02 15:04:05")
	statusStr := fmt.Sprintf("%d", status)
	if err != nil {
		statusStr = fmt.Sprintf("ERROR(%v)", err)
	}

	// Format: [TIMESTAMP] [PROVIDER] STATUS: <code> | PROMPT: <prompt>
	entry := fmt.Sprintf("[%s] [%s] STATUS: %s\nPROMPT:\n%s\n--------------------------------------------------\n",
		timestamp, provider, statusStr, Snippet(prompt, 200))

	_, _ = f.WriteString(entry)
}

// Snippet shortens text to at most n runes for logging.
func Snippet(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
