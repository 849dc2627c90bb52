package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storyvoice/pkg/config"
	"storyvoice/pkg/generator"
	"storyvoice/pkg/model"
	"storyvoice/pkg/story"
	"storyvoice/pkg/tts"
)

func (a *app) voicesCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the Arabic voices offered by the configured engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := generator.NewTTSProvider(cmd.Context(), &a.cfg.TTS, tts.NewHistory(a.cfg.Log.TTS))
			if err != nil {
				return fmt.Errorf("failed to initialize tts provider: %w", err)
			}
			voices, err := p.Voices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list voices: %w", err)
			}
			if !all {
				voices = tts.FilterArabic(voices)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLANGUAGE\tGENDER\tENGINE")
			for _, v := range voices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Language, v.Gender, v.Engine)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "\n%d voice(s) from %s\n", len(voices), p.Name())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every voice, not only Arabic ones")
	return cmd
}

func (a *app) fixPathsCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fix-paths [variant]",
		Short: "Rewrite audio references to the canonical corpus-relative form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			rc, err := a.cfg.Resolve(variantArg(args))
			if err != nil {
				return err
			}
			c, err := story.LoadCorpus(rc.CorpusPath)
			if err != nil {
				return err
			}

			fixes := story.FixPaths(c, rc)
			for _, f := range fixes {
				fmt.Fprintf(a.stdout, "%s %s: %s -> %s\n", f.StoryID, f.Field, f.Old, f.New)
			}
			if len(fixes) == 0 {
				fmt.Fprintf(a.stdout, "All references in %s are canonical\n", rc.CorpusPath)
				return nil
			}
			if dryRun {
				fmt.Fprintf(a.stdout, "%d reference(s) would be rewritten\n", len(fixes))
				return nil
			}
			if err := c.Save(rc.CorpusPath); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Rewrote %d reference(s) in %s\n", len(fixes), rc.CorpusPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the rewrites without saving")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [variant]",
		Short: "Report how much of a corpus is narrated",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			rc, err := a.cfg.Resolve(variantArg(args))
			if err != nil {
				return err
			}
			c, err := story.LoadCorpus(rc.CorpusPath)
			if err != nil {
				return err
			}

			st := story.Audit(c, rc)
			fmt.Fprintf(a.stdout, "Corpus:   %s (%s)\n", rc.CorpusPath, rc.Name())
			fmt.Fprintf(a.stdout, "Stories:  %d\n", st.Total)
			fmt.Fprintf(a.stdout, "Complete: %d\n", st.Complete)
			fmt.Fprintf(a.stdout, "Partial:  %d\n", st.Partial)
			fmt.Fprintf(a.stdout, "Missing:  %d\n", st.Missing)
			fmt.Fprintf(a.stdout, "Invalid:  %d\n", st.Invalid)
			if st.Legacy > 0 {
				fmt.Fprintf(a.stdout, "Legacy:   %d\n", st.Legacy)
			}
			if len(st.Dangling) > 0 {
				fmt.Fprintf(a.stdout, "\nReferences without a file (%d):\n", len(st.Dangling))
				for _, d := range st.Dangling {
					fmt.Fprintf(a.stdout, "  %s %s: %s\n", d.StoryID, d.Voice, d.Ref)
				}
			}
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var (
		all     bool
		storyID string
	)
	cmd := &cobra.Command{
		Use:   "history [variant]",
		Short: "Show the outcome of the most recent run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			if !a.cfg.History.Enabled {
				return errors.New("generation history is disabled (history.enabled)")
			}
			rc, err := a.cfg.Resolve(variantArg(args))
			if err != nil {
				return err
			}

			d, st, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			if storyID != "" {
				events, err := st.StoryEvents(cmd.Context(), rc.Name(), storyID)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					fmt.Fprintf(a.stdout, "No events recorded for story %s in %s\n", storyID, rc.Name())
					return nil
				}
				printStoryHistory(a.stdout, storyID, events)
				return nil
			}

			runID, ok := st.LastRunID(cmd.Context(), rc.Name())
			if !ok {
				fmt.Fprintf(a.stdout, "No runs recorded for %s\n", rc.Name())
				return nil
			}
			events, err := st.RunEvents(cmd.Context(), runID)
			if err != nil {
				return err
			}
			printHistory(a.stdout, runID, events, all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include generated voices, not only failures")
	cmd.Flags().StringVar(&storyID, "story", "", "show every recorded attempt for this story id instead")
	return cmd
}

func (a *app) initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.GenerateDefault(a.configPath); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(a.stdout, "Config file generated: %s\n", a.configPath)
			return nil
		},
	}
}

func printHistory(w io.Writer, runID string, events []model.GenerationEvent, all bool) {
	var generated, failed int
	for _, ev := range events {
		if ev.Outcome == model.OutcomeFailed {
			failed++
		} else {
			generated++
		}
	}

	started := "-"
	if len(events) > 0 {
		started = events[0].CreatedAt.Local().Format("2006-01-02 15:04:05")
	}
	fmt.Fprintf(w, "Run %s (started %s): %d generated, %d failed\n", runID, started, generated, failed)

	for _, ev := range events {
		if !all && ev.Outcome != model.OutcomeFailed {
			continue
		}
		line := fmt.Sprintf("  [%s] %s (%s) %s", ev.Outcome, ev.StoryID, ev.Title, ev.Voice)
		if ev.Error != "" {
			line += ": " + ev.Error
		} else if ev.Path != "" {
			line += " -> " + ev.Path
		}
		fmt.Fprintln(w, line)
	}
}

// printStoryHistory lists the attempts for one story, newest first.
func printStoryHistory(w io.Writer, storyID string, events []model.GenerationEvent) {
	fmt.Fprintf(w, "Story %s (%s): %d attempt(s)\n", storyID, events[0].Title, len(events))
	for _, ev := range events {
		line := fmt.Sprintf("  %s run %s [%s] %s",
			ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), shortRunID(ev.RunID), ev.Outcome, ev.Voice)
		if ev.Error != "" {
			line += ": " + ev.Error
		} else if ev.Path != "" {
			line += " -> " + ev.Path
		}
		fmt.Fprintln(w, line)
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
