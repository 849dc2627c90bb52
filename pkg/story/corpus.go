package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

var (
	// ErrCorpusRead means the corpus file could not be read.
	ErrCorpusRead = errors.New("corpus read failed")
	// ErrCorpusParse means the corpus file is not a story array or wrapper.
	ErrCorpusParse = errors.New("corpus parse failed")
	// ErrCorpusWrite means the corpus could not be persisted.
	ErrCorpusWrite = errors.New("corpus write failed")
)

const storiesKey = "stories"

// Corpus is the in-memory story collection of one dialect/register.
type Corpus struct {
	Stories []*Record

	// wrapper is nil for a bare array. Otherwise it holds the enclosing
	// object whose stories key is replaced on save.
	wrapper *Record
}

// Wrapped reports whether the corpus was read from a {"stories": [...]} object.
func (c *Corpus) Wrapped() bool {
	return c.wrapper != nil
}

// LoadCorpus reads and parses a corpus file.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorpusRead, path, err)
	}
	c, err := ParseCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCorpus decodes either shape of corpus document.
func ParseCorpus(data []byte) (*Corpus, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorpusParse)
	}

	switch trimmed[0] {
	case '[':
		var stories []*Record
		if err := json.Unmarshal(trimmed, &stories); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorpusParse, err)
		}
		return &Corpus{Stories: nonNil(stories)}, nil
	case '{':
		wrapper := NewRecord()
		if err := json.Unmarshal(trimmed, wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorpusParse, err)
		}
		raw, ok := wrapper.Raw(storiesKey)
		if !ok {
			return nil, fmt.Errorf("%w: object has no %q array", ErrCorpusParse, storiesKey)
		}
		var stories []*Record
		if err := json.Unmarshal(raw, &stories); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrCorpusParse, storiesKey, err)
		}
		return &Corpus{Stories: nonNil(stories), wrapper: wrapper}, nil
	default:
		return nil, fmt.Errorf("%w: expected an array or an object", ErrCorpusParse)
	}
}

// null entries decode to nil pointers; treat them as empty records.
func nonNil(stories []*Record) []*Record {
	if stories == nil {
		return []*Record{}
	}
	for i, s := range stories {
		if s == nil {
			stories[i] = NewRecord()
		}
	}
	return stories
}

// Marshal renders the corpus in the shape it was read, indented by two
// spaces with non-ASCII and HTML characters left unescaped.
func (c *Corpus) Marshal() ([]byte, error) {
	stories := c.Stories
	if stories == nil {
		stories = []*Record{}
	}

	var doc any = stories
	if c.wrapper != nil {
		raw, err := compact(stories)
		if err != nil {
			return nil, err
		}
		c.wrapper.SetRaw(storiesKey, raw)
		doc = c.wrapper
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compact(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Save atomically replaces the file at path with the serialized corpus.
func (c *Corpus) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorpusWrite, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorpusWrite, path, err)
	}
	return nil
}
