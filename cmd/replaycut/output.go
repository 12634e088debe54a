package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/kikiluvv/replaycut/internal/clips"
	"github.com/kikiluvv/replaycut/internal/pipeline"
	"github.com/kikiluvv/replaycut/internal/scheduler"
	"github.com/kikiluvv/replaycut/pkg/util"
)

type planOutput struct {
	RunID   string                `json:"run_id"`
	Dir     string                `json:"dir"`
	Target  float64               `json:"target_clip_duration"`
	Clips   []clips.ScheduledClip `json:"clips"`
	Skipped []skipOutput          `json:"skipped"`
	Summary scheduler.Summary     `json:"summary"`
}

type skipOutput struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func newPlanOutput(res *pipeline.Result) planOutput {
	out := planOutput{
		RunID:   res.RunID,
		Dir:     res.Dir,
		Target:  res.Target,
		Clips:   res.Plan.Clips,
		Skipped: make([]skipOutput, 0, len(res.Plan.Skipped)),
		Summary: res.Plan.Summary,
	}
	if out.Clips == nil {
		out.Clips = []clips.ScheduledClip{}
	}
	for _, s := range res.Plan.Skipped {
		reason := ""
		if s.Reason != nil {
			reason = s.Reason.Error()
		}
		out.Skipped = append(out.Skipped, skipOutput{Path: s.Path, Reason: reason})
	}
	return out
}

func printPlanJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newPlanOutput(res))
}

func printPlan(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "%s (target %s)\n\n", res.Dir, util.FormatSeconds(res.Target))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFILE\tCREATED\tSTART\tEND\tLENGTH")
	for i, c := range res.Plan.Clips {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			filepath.Base(c.Path),
			util.FormatClock(c.Created),
			util.FormatSeconds(c.Start),
			util.FormatSeconds(c.End()),
			util.FormatSeconds(c.Duration),
		)
	}
	tw.Flush()

	if len(res.Plan.Skipped) > 0 {
		fmt.Fprintln(w, "\nskipped:")
		for _, s := range res.Plan.Skipped {
			fmt.Fprintf(w, "  %s: %v\n", filepath.Base(s.Path), s.Reason)
		}
	}

	sum := res.Plan.Summary
	fmt.Fprintf(w, "\n%d/%d files scheduled, %s total (naive %s, saved %s, %.1f%%)\n",
		sum.ScheduledClips, sum.InputFiles,
		util.FormatSeconds(sum.ScheduledDuration),
		util.FormatSeconds(sum.NaiveDuration),
		util.FormatSeconds(sum.SavedDuration),
		sum.SavingsPercent,
	)
}

func printCompileReport(w io.Writer, r *pipeline.CompileReport) {
	fmt.Fprintf(w, "output:   %s\n", r.Output)
	fmt.Fprintf(w, "clips:    %d extracted, %d failed, %d too large\n", r.Extracted, len(r.Failed), len(r.SkippedLarge))
	fmt.Fprintf(w, "length:   %s", util.FormatSeconds(r.TotalDuration))
	if r.Intro {
		fmt.Fprint(w, " + intro")
	}
	fmt.Fprintf(w, "\nelapsed:  %s\n", util.FormatDuration(r.Elapsed))
}
