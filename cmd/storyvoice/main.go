package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyvoice/pkg/config"
	"storyvoice/pkg/db"
	"storyvoice/pkg/db/maintenance"
	"storyvoice/pkg/generator"
	"storyvoice/pkg/logging"
	"storyvoice/pkg/model"
	"storyvoice/pkg/store"
	"storyvoice/pkg/synth"
	"storyvoice/pkg/tracker"
	"storyvoice/pkg/tts"
	"storyvoice/pkg/version"
)

const defaultConfigPath = "configs/storyvoice.yaml"

// exitInterrupted is returned when SIGINT/SIGTERM stopped a run early.
const exitInterrupted = 130

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			stop()
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries state shared by all commands.
type app struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer

	cfg *config.Config
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	var (
		opts   generator.Options
		voices []string
	)

	root := &cobra.Command{
		Use:   "storyvoice [variant]",
		Short: "Generate male and female narration for a story corpus",
		Long: `storyvoice narrates every story of a corpus that still lacks audio and
records the generated files in the corpus. Runs are incremental: finished
voices are never regenerated unless --force is given.

The variant names a dialect (msa, egyptian, jordanian) and/or a register
(fiction, nonfiction), e.g. "nonfiction" or "jordanian-nonfiction".
Without a variant the MSA fiction corpus is processed.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Voices = opts.Voices[:0]
			for _, v := range voices {
				g, err := model.ParseGender(v)
				if err != nil {
					return err
				}
				opts.Voices = append(opts.Voices, g)
			}
			return a.generate(cmd.Context(), variantArg(args), opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to the config file")

	root.Flags().BoolVar(&opts.Force, "force", false, "regenerate voices that already have audio")
	root.Flags().StringArrayVar(&opts.StoryIDs, "story", nil, "only process the story with this id (repeatable)")
	root.Flags().StringArrayVar(&voices, "voice", nil, "only generate this voice, male or female (repeatable)")
	root.Flags().BoolVar(&opts.DryRun, "dry-run", false, "list what would be generated without calling the provider")

	root.AddCommand(
		a.voicesCmd(),
		a.fixPathsCmd(),
		a.statusCmd(),
		a.historyCmd(),
		a.initConfigCmd(),
	)
	return root
}

func variantArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// setup loads the config and initializes logging. The returned cleanup
// closes the log file.
func (a *app) setup() (func(), error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	cleanup, err := logging.Init(&cfg.Log, a.stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cleanup, nil
}

// openHistory opens the generation ledger and prunes expired events.
func (a *app) openHistory(ctx context.Context) (*db.DB, *store.SQLiteStore, error) {
	d, err := db.Init(a.cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	st := store.NewSQLiteStore(d)
	maintenance.Run(ctx, st, d, a.cfg.History.Retention.D())
	return d, st, nil
}

func (a *app) newWriter(ctx context.Context, tr *tracker.Tracker) (*synth.Writer, error) {
	p, err := generator.NewTTSProvider(ctx, &a.cfg.TTS, tts.NewHistory(a.cfg.Log.TTS))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tts provider: %w", err)
	}
	profiles, err := tts.ProfilesFor(&a.cfg.TTS)
	if err != nil {
		return nil, err
	}
	return synth.NewWriter(p, profiles, a.cfg.Synthesis, tr, slog.Default()), nil
}

func (a *app) generate(ctx context.Context, arg string, opts generator.Options) error {
	cleanup, err := a.setup()
	if err != nil {
		return err
	}
	defer cleanup()

	rc, err := a.cfg.Resolve(arg)
	if err != nil {
		return err
	}

	opts.VoiceDelay = a.cfg.Pacing.VoiceDelay.D()
	opts.StoryDelay = a.cfg.Pacing.StoryDelay.D()

	slog.Info("storyvoice started", "version", version.Version, "variant", rc.Name(), "engine", a.cfg.TTS.Engine)

	tr := tracker.New()
	var s generator.Synthesizer
	if !opts.DryRun {
		w, err := a.newWriter(ctx, tr)
		if err != nil {
			return err
		}
		s = w
	}

	g := generator.New(rc, s, opts, slog.Default())

	if a.cfg.History.Enabled && !opts.DryRun {
		d, st, err := a.openHistory(ctx)
		if err != nil {
			slog.Warn("Generation history disabled for this run", "error", err)
		} else {
			defer d.Close()
			g.SetRecorder(st)
		}
	}

	sum, err := g.Run(ctx)
	if sum != nil {
		printSummary(a.stdout, sum, tr)
	}
	if err != nil {
		return err
	}
	if sum.Interrupted {
		return &exitError{code: exitInterrupted, msg: "interrupted: rerun to continue where this run stopped"}
	}
	return nil
}
