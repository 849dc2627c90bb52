package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storyvoice/pkg/model"
)

// Dialects.
const (
	DialectMSA       = "msa"
	DialectEgyptian  = "egyptian"
	DialectJordanian = "jordanian"
)

// Registers.
const (
	RegisterFiction    = "fiction"
	RegisterNonfiction = "nonfiction"
)

// FieldSet names the record fields a variant reads and writes.
// Candidate lists are ordered by priority.
type FieldSet struct {
	Content []string
	TitleAr []string
	TitleEn []string
	Legacy  []string
	Male    string
	Female  string
}

// AudioField returns the reference field for a voice.
func (f FieldSet) AudioField(g model.Gender) string {
	if g == model.Female {
		return f.Female
	}
	return f.Male
}

// RunConfig is the resolved, immutable configuration of one run.
type RunConfig struct {
	Dialect    string
	Register   string
	AssetRoot  string
	CorpusPath string
	AudioDir   string
	// RelPrefix is the corpus-relative directory written into reference
	// fields, always slash-separated and ending in "/".
	RelPrefix string
	// FilePattern contains {id} and {voice} placeholders.
	FilePattern string
	Fields      FieldSet
}

// Name is the short variant label, e.g. "jordanian/nonfiction".
func (r RunConfig) Name() string {
	return r.Dialect + "/" + r.Register
}

// ErrUnsafeStoryID marks an id that cannot be used as part of a file name.
var ErrUnsafeStoryID = errors.New("unsafe story id")

// CheckStoryID rejects ids that would place a file outside the audio
// directory: path separators, "." and "..".
func CheckStoryID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrUnsafeStoryID, id)
	}
	return nil
}

// FileName renders the audio file name for a story id and voice.
func (r RunConfig) FileName(storyID string, g model.Gender) string {
	return strings.NewReplacer("{id}", storyID, "{voice}", string(g)).Replace(r.FilePattern)
}

// RefPath is the value stored in the record for a generated file.
func (r RunConfig) RefPath(fileName string) string {
	return r.RelPrefix + fileName
}

// AudioPath is the on-disk destination of a generated file.
func (r RunConfig) AudioPath(fileName string) string {
	return filepath.Join(r.AudioDir, fileName)
}

// RefFile maps a stored corpus-relative reference to its on-disk path.
func (r RunConfig) RefFile(ref string) string {
	return filepath.Join(r.AssetRoot, filepath.FromSlash(ref))
}

// EnsureAudioDir creates the audio directory including parents.
func (r RunConfig) EnsureAudioDir() error {
	if err := os.MkdirAll(r.AudioDir, 0o755); err != nil {
		return fmt.Errorf("failed to create audio directory %s: %w", r.AudioDir, err)
	}
	return nil
}

type variant struct {
	corpus      string
	relPrefix   string
	filePattern string
	fields      FieldSet
}

var (
	titleEn      = []string{"title_en", "titleEn"}
	msaTitleAr   = []string{"title_ar", "titleAr"}
	dialectTitle = []string{"story_title", "title_ar", "titleAr"}
	msaContent   = []string{"content_ar", "contentAr"}
	legacyAudio  = []string{"audio_ar", "audioAr"}
	anyContent   = []string{"content_ar", "contentAr", "story_content"}
	egyptianBody = []string{"story_content", "content_ar", "contentAr"}
)

var variants = map[string]variant{
	DialectMSA + "/" + RegisterFiction: {
		corpus:      "stories_json/msa/msa_stories.json",
		relPrefix:   "data/audio/",
		filePattern: "{id}_ar_{voice}.mp3",
		fields: FieldSet{
			Content: msaContent, TitleAr: msaTitleAr, TitleEn: titleEn, Legacy: legacyAudio,
			Male: "audio_ar_male", Female: "audio_ar_female",
		},
	},
	DialectMSA + "/" + RegisterNonfiction: {
		corpus:      "stories_json/msa/msa_stories_nonfiction.json",
		relPrefix:   "data/audio/nonfiction/",
		filePattern: "nonfiction_{id}_ar_{voice}.mp3",
		fields: FieldSet{
			Content: msaContent, TitleAr: msaTitleAr, TitleEn: titleEn, Legacy: legacyAudio,
			Male: "audioArMale", Female: "audioArFemale",
		},
	},
	DialectEgyptian + "/" + RegisterFiction: {
		corpus:      "stories_json/egyptian/egyptian_stories.json",
		relPrefix:   "data/audio/egyptian/",
		filePattern: "{id}_egyptian_{voice}.mp3",
		fields: FieldSet{
			Content: egyptianBody, TitleAr: dialectTitle, TitleEn: titleEn,
			Male: "audio_egyptian_male", Female: "audio_egyptian_female",
		},
	},
	DialectEgyptian + "/" + RegisterNonfiction: {
		corpus:      "stories_json/egyptian/egyptian_stories_nonfiction.json",
		relPrefix:   "data/audio/egyptian/nonfiction/",
		filePattern: "{id}_egyptian_nonfiction_{voice}.mp3",
		fields: FieldSet{
			Content: egyptianBody, TitleAr: dialectTitle, TitleEn: titleEn,
			Male: "audio_egyptian_nonfiction_male", Female: "audio_egyptian_nonfiction_female",
		},
	},
	DialectJordanian + "/" + RegisterFiction: {
		corpus:      "stories_json/jordanian/jordanian_stories.json",
		relPrefix:   "data/audio/jordanian/",
		filePattern: "{id}_jordanian_{voice}.mp3",
		fields: FieldSet{
			Content: anyContent, TitleAr: dialectTitle, TitleEn: titleEn,
			Male: "audio_jordanian_male", Female: "audio_jordanian_female",
		},
	},
	DialectJordanian + "/" + RegisterNonfiction: {
		corpus:      "stories_json/jordanian/jordanian_stories_nonfiction.json",
		relPrefix:   "data/audio/jordanian/nonfiction/",
		filePattern: "{id}_jordanian_nonfiction_{voice}.mp3",
		fields: FieldSet{
			Content: anyContent, TitleAr: dialectTitle, TitleEn: titleEn,
			Male: "audio_jordanian_nonfiction_male", Female: "audio_jordanian_nonfiction_female",
		},
	},
}

// ParseVariant maps the positional command-line argument to a dialect and
// register. The argument may name either or both, separated by '-', '_',
// '/' or ':'. Missing parts default to msa and fiction.
func ParseVariant(arg string) (dialect, register string, err error) {
	dialect, register = DialectMSA, RegisterFiction

	tokens := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(arg)), func(r rune) bool {
		return r == '-' || r == '_' || r == '/' || r == ':'
	})

	var seenDialect, seenRegister bool
	for _, tok := range tokens {
		switch tok {
		case DialectMSA, DialectEgyptian, DialectJordanian:
			if seenDialect {
				return "", "", fmt.Errorf("variant %q names more than one dialect", arg)
			}
			dialect, seenDialect = tok, true
		case RegisterFiction, RegisterNonfiction:
			if seenRegister {
				return "", "", fmt.Errorf("variant %q names more than one register", arg)
			}
			register, seenRegister = tok, true
		default:
			return "", "", fmt.Errorf("unknown variant %q: expected a dialect (msa, egyptian, jordanian) and/or a register (fiction, nonfiction)", arg)
		}
	}
	return dialect, register, nil
}

// ResolveVariant builds the RunConfig for a dialect/register combination.
// It performs no I/O.
func ResolveVariant(assetRoot, dialect, register string) (RunConfig, error) {
	v, ok := variants[dialect+"/"+register]
	if !ok {
		return RunConfig{}, fmt.Errorf("unsupported variant %s/%s", dialect, register)
	}

	return RunConfig{
		Dialect:     dialect,
		Register:    register,
		AssetRoot:   assetRoot,
		CorpusPath:  filepath.Join(assetRoot, filepath.FromSlash(v.corpus)),
		AudioDir:    filepath.Join(assetRoot, filepath.FromSlash(v.relPrefix)),
		RelPrefix:   v.relPrefix,
		FilePattern: v.filePattern,
		Fields:      v.fields,
	}, nil
}

// Resolve parses the positional argument and resolves it against the
// configured asset root.
func (c *Config) Resolve(arg string) (RunConfig, error) {
	dialect, register, err := ParseVariant(arg)
	if err != nil {
		return RunConfig{}, err
	}
	return ResolveVariant(c.Corpus.AssetRoot, dialect, register)
}
