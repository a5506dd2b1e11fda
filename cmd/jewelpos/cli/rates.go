package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/rates"
)

// SnapshotResolver loads the rate snapshot recorded for a day.
type SnapshotResolver interface {
	Resolve(ctx context.Context, date time.Time) (billing.RateSnapshot, error)
}

// RatesCLI checks recorded rate snapshots from the command line.
type RatesCLI struct {
	rates SnapshotResolver
	now   func() time.Time
}

// NewRatesCLI wires the CLI to a resolver.
func NewRatesCLI(resolver SnapshotResolver) (*RatesCLI, error) {
	if resolver == nil {
		return nil, errors.New("rates cli: resolver required")
	}
	return &RatesCLI{rates: resolver, now: time.Now}, nil
}

// RatesValidateOptions defines available flags for the rates validate command.
type RatesValidateOptions struct {
	From       string
	Days       int
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// RatesValidateSummary describes the JSON response for rates validate.
type RatesValidateSummary struct {
	OK   bool        `json:"ok"`
	Days []DayStatus `json:"days"`
}

// DayStatus reports what is missing for one calendar day.
type DayStatus struct {
	Date          string `json:"date"`
	Recorded      bool   `json:"recorded"`
	MissingKarats []int  `json:"missing_karats,omitempty"`
	SilverMissing bool   `json:"silver_missing,omitempty"`
}

func (d DayStatus) ok() bool {
	return d.Recorded && len(d.MissingKarats) == 0 && !d.SilverMissing
}

// ValidateCommand checks each day from From for Days days and prints the outcome.
// It exits 10 when any day has gaps.
func (c *RatesCLI) ValidateCommand(ctx context.Context, opts RatesValidateOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Days <= 0 {
		opts.Days = 1
	}
	if opts.Days > 366 {
		_, _ = fmt.Fprintln(opts.Stderr, "rates validate: --days must be at most 366")
		return 1
	}
	start := rates.DateOf(c.now())
	if raw := strings.TrimSpace(opts.From); raw != "" && raw != "today" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "rates validate: invalid date %q (expected YYYY-MM-DD)\n", opts.From)
			return 1
		}
		start = parsed
	}

	summary := RatesValidateSummary{OK: true, Days: make([]DayStatus, 0, opts.Days)}
	for i := 0; i < opts.Days; i++ {
		day := start.AddDate(0, 0, i)
		status := DayStatus{Date: day.Format(time.DateOnly)}
		snap, err := c.rates.Resolve(ctx, day)
		switch {
		case errors.Is(err, billing.ErrRatesMissing):
		case err != nil:
			_, _ = fmt.Fprintf(opts.Stderr, "rates validate: %v\n", err)
			return 1
		default:
			status.Recorded = true
			status.MissingKarats, status.SilverMissing = rates.Gaps(snap)
		}
		if !status.ok() {
			summary.OK = false
		}
		summary.Days = append(summary.Days, status)
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "rates validate: encode json: %v\n", err)
			return 1
		}
	} else {
		renderValidateHuman(opts.Stdout, summary)
	}
	if !summary.OK {
		return 10
	}
	return 0
}

func renderValidateHuman(out io.Writer, summary RatesValidateSummary) {
	for _, d := range summary.Days {
		switch {
		case !d.Recorded:
			_, _ = fmt.Fprintf(out, "%s  MISSING  no rates recorded\n", d.Date)
		case d.ok():
			_, _ = fmt.Fprintf(out, "%s  ok\n", d.Date)
		default:
			gaps := make([]string, 0, len(d.MissingKarats)+1)
			for _, k := range d.MissingKarats {
				gaps = append(gaps, fmt.Sprintf("%dK", k))
			}
			if d.SilverMissing {
				gaps = append(gaps, "silver")
			}
			_, _ = fmt.Fprintf(out, "%s  partial  missing %s\n", d.Date, strings.Join(gaps, ", "))
		}
	}
	if summary.OK {
		_, _ = fmt.Fprintln(out, "All checked days have rates.")
	}
}
