package main

import (
	"fmt"
	"io"
	"time"

	"storyvoice/pkg/generator"
	"storyvoice/pkg/tracker"
)

func printSummary(w io.Writer, sum *generator.Summary, tr *tracker.Tracker) {
	fmt.Fprintln(w)
	if sum.DryRun {
		fmt.Fprintf(w, "Dry run for %s: %d voice(s) would be generated\n", sum.Variant, len(sum.Planned))
		for _, p := range sum.Planned {
			fmt.Fprintf(w, "  %s (%s) %s -> %s\n", p.StoryID, p.Title, p.Voice, p.Ref)
		}
		return
	}

	fmt.Fprintf(w, "Summary for %s (run %s)\n", sum.Variant, sum.RunID)
	fmt.Fprintf(w, "  Stories:          %d\n", sum.Total)
	fmt.Fprintf(w, "  Processed:        %d\n", sum.Processed)
	fmt.Fprintf(w, "  Voices generated: %d\n", sum.Generated)
	fmt.Fprintf(w, "  Already complete: %d\n", sum.SkippedComplete)
	fmt.Fprintf(w, "  Invalid content:  %d\n", sum.SkippedInvalid)
	if sum.SkippedFiltered > 0 {
		fmt.Fprintf(w, "  Filtered out:     %d\n", sum.SkippedFiltered)
	}
	fmt.Fprintf(w, "  Elapsed:          %s\n", sum.Elapsed.Round(time.Millisecond))

	if tr != nil {
		snap := tr.Snapshot()
		for _, name := range tr.Providers() {
			s := snap[name]
			fmt.Fprintf(w, "  %s: %d ok, %d failed (%d not retryable), %d retries, %d bytes\n",
				name, s.APISuccess, s.APIFailures, s.Fatal, s.Retries, s.Bytes)
		}
	}

	if len(sum.Failures) > 0 {
		fmt.Fprintf(w, "\nFailed stories (%d):\n", len(sum.Failures))
		for _, f := range sum.Failures {
			if f.Voice == "" {
				fmt.Fprintf(w, "  %s (%s): %s\n", f.StoryID, f.Title, f.Error)
				continue
			}
			fmt.Fprintf(w, "  %s (%s) %s: %s\n", f.StoryID, f.Title, f.Voice, f.Error)
		}
	}
	if sum.Interrupted {
		fmt.Fprintln(w, "\nRun was interrupted before reaching the end of the corpus.")
	}
}
