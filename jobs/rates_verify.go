package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	jobmetrics "github.com/Ayushchauha111/jewelpos/internal/jobs"
	"github.com/Ayushchauha111/jewelpos/internal/rates"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RateResolver is the subset of rates.Service the job needs.
type RateResolver interface {
	Resolve(ctx context.Context, date time.Time) (billing.RateSnapshot, error)
}

// RatesVerifyJob checks that the day's rate snapshot exists so the counter can bill.
type RatesVerifyJob struct {
	Rates   RateResolver
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewRatesVerifyJob wires dependencies for the verify handler.
func NewRatesVerifyJob(rates RateResolver, logger *slog.Logger, metrics *jobmetrics.Metrics) *RatesVerifyJob {
	return &RatesVerifyJob{
		Rates:   rates,
		Logger:  logger,
		Metrics: metrics,
		clock:   time.Now,
	}
}

// Handle processes rates:verify tasks. A missing snapshot fails the run without retry.
func (j *RatesVerifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Rates == nil {
		return errors.New("rates verify: handler not configured")
	}
	var payload RatesVerifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("rates verify: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	date := j.now()
	if payload.Date != "" {
		parsed, err := time.Parse(time.DateOnly, payload.Date)
		if err != nil {
			return fmt.Errorf("rates verify: bad date %q: %w", payload.Date, asynq.SkipRetry)
		}
		date = parsed
	}

	tracker := j.metrics().Track(TaskRatesVerify)
	return tracker.End(j.verify(ctx, date))
}

func (j *RatesVerifyJob) verify(ctx context.Context, date time.Time) error {
	logger := j.logger().With(slog.String("date", date.Format(time.DateOnly)))
	snap, err := j.Rates.Resolve(ctx, date)
	if errors.Is(err, billing.ErrRatesMissing) {
		logger.Warn("rates not recorded; bills cannot be priced until they are")
		return fmt.Errorf("rates verify: %v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		logger.Error("resolve rates", slog.Any("error", err))
		return err
	}

	missing, silverMissing := rates.Gaps(snap)
	if len(missing) > 0 {
		logger.Warn("common karats without a rate", slog.Any("karats", missing))
	}
	if silverMissing {
		logger.Warn("silver rate not recorded")
	}
	logger.Info("rates verified", slog.Int("karats", len(snap.GoldPerGram)))
	return nil
}

func (j *RatesVerifyJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRatesVerify))
	}
	return slog.Default().With(slog.String("job", TaskRatesVerify))
}

func (j *RatesVerifyJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *RatesVerifyJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
