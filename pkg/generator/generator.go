// Package generator drives incremental narration of a story corpus.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storyvoice/pkg/config"
	"storyvoice/pkg/model"
	"storyvoice/pkg/story"
	"storyvoice/pkg/synth"
)

// Synthesizer produces one voice of one story as a file.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, text string, g model.Gender, dest string) (string, error)
}

// Recorder receives an event for every voice the run attempted.
type Recorder interface {
	RecordEvent(ctx context.Context, ev model.GenerationEvent) error
}

// Options tune a single run.
type Options struct {
	// Force treats every voice of a valid story as missing.
	Force bool
	// StoryIDs restricts the run to these ids when non-empty.
	StoryIDs []string
	// Voices restricts the run to these voices when non-empty.
	Voices []model.Gender
	// DryRun plans without calling the provider or writing files.
	DryRun bool

	VoiceDelay time.Duration
	StoryDelay time.Duration
}

// PlannedVoice is a voice the run generates, or would generate in a dry run.
type PlannedVoice struct {
	StoryID string
	Title   string
	Voice   model.Gender
	Ref     string
}

// Summary is the outcome of one pass over the corpus.
type Summary struct {
	RunID   string
	Variant string
	DryRun  bool

	Total           int
	Processed       int
	Generated       int
	SkippedComplete int
	SkippedInvalid  int
	SkippedFiltered int

	Planned     []PlannedVoice
	Failures    []model.Failure
	Interrupted bool
	Elapsed     time.Duration
}

// Generator is the corpus driver. It is strictly sequential.
type Generator struct {
	rc       config.RunConfig
	schema   story.Schema
	synth    Synthesizer
	opts     Options
	recorder Recorder
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a Generator for one resolved variant.
func New(rc config.RunConfig, s Synthesizer, opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		rc:     rc,
		schema: story.NewSchema(rc.Fields),
		synth:  s,
		opts:   opts,
		logger: logger.With("variant", rc.Name()),
		sleep:  synth.Sleep,
		now:    time.Now,
	}
}

// SetRecorder attaches a history recorder. Recording errors are logged and
// never fail the run.
func (g *Generator) SetRecorder(r Recorder) {
	g.recorder = r
}

// Run performs one pass. The returned error is non-nil only when the corpus
// cannot be loaded, the audio directory cannot be created, or the final
// persist fails; per-story failures are reported in the Summary.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	start := g.now()

	corpus, err := story.LoadCorpus(g.rc.CorpusPath)
	if err != nil {
		return nil, err
	}
	if !g.opts.DryRun {
		if err := g.rc.EnsureAudioDir(); err != nil {
			return nil, err
		}
	}

	sum := &Summary{
		RunID:   uuid.New().String(),
		Variant: g.rc.Name(),
		DryRun:  g.opts.DryRun,
		Total:   len(corpus.Stories),
	}
	g.logger.Info("Starting generation",
		"run_id", sum.RunID, "corpus", g.rc.CorpusPath, "stories", sum.Total,
		"force", g.opts.Force, "dry_run", g.opts.DryRun)

	wanted := make(map[string]bool, len(g.opts.StoryIDs))
	for _, id := range g.opts.StoryIDs {
		wanted[id] = true
	}

	calledBefore := false
	for i, rec := range corpus.Stories {
		if ctx.Err() != nil {
			sum.Interrupted = true
			break
		}

		v := g.schema.View(i, rec)
		logger := g.logger.With("story", v.ID, "title", v.DisplayTitle)

		if len(wanted) > 0 && !wanted[v.ID] {
			sum.SkippedFiltered++
			continue
		}

		missing := g.missingVoices(rec)
		if len(missing) == 0 {
			logger.Info("Skipping story: audio already present")
			sum.SkippedComplete++
			continue
		}
		if !story.IsValidContent(v.Body) {
			logger.Info("Skipping story: invalid or missing content", "meaningful_chars", story.MeaningfulLength(v.Body))
			sum.SkippedInvalid++
			continue
		}

		if err := config.CheckStoryID(v.ID); err != nil {
			logger.Error("Skipping story: id cannot be used in a file name", "error", err)
			sum.Failures = append(sum.Failures, model.Failure{StoryID: v.ID, Title: v.DisplayTitle, Error: err.Error()})
			continue
		}

		sum.Processed++

		if g.opts.DryRun {
			for _, voice := range missing {
				sum.Planned = append(sum.Planned, g.plan(v, voice))
			}
			continue
		}

		if calledBefore && g.opts.StoryDelay > 0 {
			if err := g.sleep(ctx, g.opts.StoryDelay); err != nil {
				sum.Interrupted = true
				break
			}
		}
		calledBefore = true

		if stop := g.processStory(ctx, corpus, rec, v, missing, sum, logger); stop {
			sum.Interrupted = true
			break
		}
	}

	var persistErr error
	if !g.opts.DryRun {
		if err := corpus.Save(g.rc.CorpusPath); err != nil {
			persistErr = err
			g.logger.Error("Final corpus write failed", "error", err)
		}
	}

	sum.Elapsed = g.now().Sub(start)
	g.logger.Info("Generation finished",
		"run_id", sum.RunID, "processed", sum.Processed, "generated", sum.Generated,
		"failures", len(sum.Failures), "interrupted", sum.Interrupted, "elapsed", sum.Elapsed)

	return sum, persistErr
}

// missingVoices lists the voices to generate, in processing order.
func (g *Generator) missingVoices(rec *story.Record) []model.Gender {
	if !g.opts.Force && g.schema.Complete(rec) {
		return nil
	}
	var out []model.Gender
	for _, voice := range model.Genders {
		if !g.selected(voice) {
			continue
		}
		if g.opts.Force || !g.schema.HasAudio(rec, voice) {
			out = append(out, voice)
		}
	}
	return out
}

func (g *Generator) selected(voice model.Gender) bool {
	if len(g.opts.Voices) == 0 {
		return true
	}
	for _, v := range g.opts.Voices {
		if v == voice {
			return true
		}
	}
	return false
}

func (g *Generator) plan(v story.View, voice model.Gender) PlannedVoice {
	return PlannedVoice{
		StoryID: v.ID,
		Title:   v.DisplayTitle,
		Voice:   voice,
		Ref:     g.rc.RefPath(g.rc.FileName(v.ID, voice)),
	}
}

// processStory generates the missing voices of one story, persisting the
// corpus after each success. It abandons the story at the first failure.
// stop is true when the context was cancelled.
func (g *Generator) processStory(ctx context.Context, corpus *story.Corpus, rec *story.Record, v story.View,
	missing []model.Gender, sum *Summary, logger *slog.Logger) (stop bool) {
	for j, voice := range missing {
		if j > 0 && g.opts.VoiceDelay > 0 {
			if err := g.sleep(ctx, g.opts.VoiceDelay); err != nil {
				return true
			}
		}

		p := g.plan(v, voice)
		dest := g.rc.AudioPath(g.rc.FileName(v.ID, voice))
		logger.Info("Generating voice", "voice", voice, "path", dest)

		started := g.now()
		_, err := g.synth.SynthesizeToFile(ctx, v.Body, voice, dest)
		elapsed := g.now().Sub(started)

		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("Generation interrupted", "voice", voice)
				return true
			}
			logger.Error("Voice generation failed", "voice", voice, "error", err)
			g.fail(ctx, sum, v, voice, p.Ref, elapsed, err)
			return false
		}

		if err := g.schema.SetAudio(rec, voice, p.Ref); err != nil {
			g.fail(ctx, sum, v, voice, p.Ref, elapsed, fmt.Errorf("failed to set %s reference: %w", voice, err))
			return false
		}
		if dropped := g.schema.DropLegacy(rec); len(dropped) > 0 {
			logger.Info("Removed legacy audio fields", "fields", dropped)
		}

		if err := corpus.Save(g.rc.CorpusPath); err != nil {
			logger.Error("Corpus write failed; story state unknown until next run", "voice", voice, "error", err)
			g.fail(ctx, sum, v, voice, p.Ref, elapsed, err)
			return false
		}

		sum.Generated++
		sum.Planned = append(sum.Planned, p)
		g.record(ctx, sum, v, voice, p.Ref, model.OutcomeGenerated, "", elapsed)
		logger.Info("Voice generated", "voice", voice, "ref", p.Ref, "elapsed", elapsed)
	}
	return false
}

func (g *Generator) fail(ctx context.Context, sum *Summary, v story.View, voice model.Gender, ref string, elapsed time.Duration, err error) {
	sum.Failures = append(sum.Failures, model.Failure{
		StoryID: v.ID,
		Title:   v.DisplayTitle,
		Voice:   voice,
		Error:   err.Error(),
	})
	g.record(ctx, sum, v, voice, ref, model.OutcomeFailed, err.Error(), elapsed)
}

func (g *Generator) record(ctx context.Context, sum *Summary, v story.View, voice model.Gender, ref string, outcome model.Outcome, errMsg string, elapsed time.Duration) {
	if g.recorder == nil {
		return
	}
	ev := model.GenerationEvent{
		RunID:     sum.RunID,
		Variant:   sum.Variant,
		StoryID:   v.ID,
		Title:     v.DisplayTitle,
		Voice:     voice,
		Path:      ref,
		Outcome:   outcome,
		Error:     errMsg,
		Elapsed:   elapsed,
		CreatedAt: g.now(),
	}
	if err := g.recorder.RecordEvent(context.WithoutCancel(ctx), ev); err != nil {
		g.logger.Warn("Failed to record generation event", "story", v.ID, "voice", voice, "error", err)
	}
}
