// Package cli implements the operator subcommands of the jewelpos binary.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"
)

// RunRates parses `rates validate` flags and runs the command.
func RunRates(ctx context.Context, c *RatesCLI, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "validate" {
		_, _ = fmt.Fprintln(stderr, "usage: jewelpos rates validate [--from YYYY-MM-DD] [--days N] [--json]")
		return 2
	}
	fs := flag.NewFlagSet("rates validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := RatesValidateOptions{Stdout: stdout, Stderr: stderr}
	fs.StringVar(&opts.From, "from", "today", "first day to check")
	fs.IntVar(&opts.Days, "days", 1, "number of consecutive days to check")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	return c.ValidateCommand(ctx, opts)
}

// JobRunner is the subset of JobsCLI the jobs subcommand needs.
type JobRunner interface {
	Trigger(ctx context.Context, name string, date time.Time) (TaskRef, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
}

// TaskRef identifies an enqueued task.
type TaskRef struct {
	ID    string `json:"id"`
	Queue string `json:"queue"`
}

// Runner adapts JobsCLI to JobRunner.
func (c *JobsCLI) Runner() JobRunner {
	return jobsRunner{c}
}

type jobsRunner struct{ c *JobsCLI }

func (r jobsRunner) Trigger(ctx context.Context, name string, date time.Time) (TaskRef, error) {
	info, err := r.c.Trigger(ctx, name, date)
	if err != nil {
		return TaskRef{}, err
	}
	return TaskRef{ID: info.ID, Queue: info.Queue}, nil
}

func (r jobsRunner) InspectQueue(ctx context.Context) (QueueStats, error) {
	return r.c.InspectQueue(ctx)
}

// RunJobs handles `jobs trigger <name> [--date]` and `jobs stats`.
func RunJobs(ctx context.Context, r JobRunner, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, "usage: jewelpos jobs trigger <task> [--date YYYY-MM-DD] | jewelpos jobs stats")
		return 2
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			_, _ = fmt.Fprintln(stderr, "jobs trigger: task name required")
			return 2
		}
		fs := flag.NewFlagSet("jobs trigger", flag.ContinueOnError)
		fs.SetOutput(stderr)
		rawDate := fs.String("date", "", "day to verify (default today)")
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		var date time.Time
		if *rawDate != "" {
			parsed, err := time.Parse(time.DateOnly, *rawDate)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "jobs trigger: invalid date %q\n", *rawDate)
				return 1
			}
			date = parsed
		}
		ref, err := r.Trigger(ctx, args[1], date)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "enqueued %s on %s\n", ref.ID, ref.Queue)
		return 0
	case "stats":
		stats, err := r.InspectQueue(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
			return 1
		}
		if err := json.NewEncoder(stdout).Encode(stats); err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
			return 1
		}
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "jobs: unknown command %q\n", args[0])
		return 2
	}
}
