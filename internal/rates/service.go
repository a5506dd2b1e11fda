// Package rates resolves the metal and stone rate snapshot for a billing date and
// the category making-charge table.
package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
)

// ErrInvalidSnapshot indicates a snapshot that cannot be stored.
var ErrInvalidSnapshot = errors.New("rates: invalid snapshot")

// Service is the Rate Resolver. Concurrent resolves of the same date share one load.
type Service struct {
	repo   Repository
	logger *slog.Logger
	group  singleflight.Group
}

// NewService wires the resolver.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// DateOf truncates t to its calendar date in t's own location, expressed as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Resolve returns the snapshot recorded for date's calendar day. It never substitutes
// another day's rates; a missing day is billing.ErrRatesMissing.
func (s *Service) Resolve(ctx context.Context, date time.Time) (billing.RateSnapshot, error) {
	day := DateOf(date)
	key := day.Format(time.DateOnly)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.repo.Snapshot(ctx, day)
	})
	select {
	case <-ctx.Done():
		return billing.RateSnapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, billing.ErrRatesMissing) {
				s.logger.Error("resolve rates", slog.String("date", key), slog.Any("error", res.Err))
			}
			return billing.RateSnapshot{}, res.Err
		}
		return res.Val.(billing.RateSnapshot), nil
	}
}

// Save validates and stores snap, replacing any snapshot already recorded for its date.
func (s *Service) Save(ctx context.Context, snap billing.RateSnapshot) (billing.RateSnapshot, error) {
	snap.Date = DateOf(snap.Date)
	if err := validateSnapshot(snap); err != nil {
		return billing.RateSnapshot{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.SaveSnapshot(ctx, snap)
	})
	if err != nil {
		return billing.RateSnapshot{}, err
	}
	s.group.Forget(snap.Date.Format(time.DateOnly))
	s.logger.Info("rates saved",
		slog.String("date", snap.Date.Format(time.DateOnly)),
		slog.Int("karats", len(snap.GoldPerGram)))
	return snap, nil
}

// MakingConfig loads the category making-charge table.
func (s *Service) MakingConfig(ctx context.Context) (billing.MakingConfig, error) {
	rows, err := s.repo.MakingRates(ctx)
	if err != nil {
		return billing.MakingConfig{}, err
	}
	return billing.NewMakingConfig(rows), nil
}

func validateSnapshot(snap billing.RateSnapshot) error {
	if snap.Date.IsZero() {
		return fmt.Errorf("%w: date required", ErrInvalidSnapshot)
	}
	if len(snap.GoldPerGram) == 0 {
		return fmt.Errorf("%w: at least one gold rate required", ErrInvalidSnapshot)
	}
	for karat, rate := range snap.GoldPerGram {
		if !billing.IsStandardKarat(karat) {
			return fmt.Errorf("%w: %dK is not a standard karat", ErrInvalidSnapshot, karat)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("%w: %dK rate must be positive", ErrInvalidSnapshot, karat)
		}
	}
	if snap.SilverPerGram.IsNegative() || snap.DiamondPerCarat.IsNegative() || snap.DefaultMakingPerGram.IsNegative() {
		return fmt.Errorf("%w: rates must not be negative", ErrInvalidSnapshot)
	}
	return nil
}

// CommonKarats are the gold buckets most counter sales need.
var CommonKarats = []int{18, 22, 24}

// Gaps lists the common karats without a positive rate and whether silver is unpriced.
func Gaps(snap billing.RateSnapshot) (missingKarats []int, silverMissing bool) {
	missingKarats = make([]int, 0)
	for _, k := range CommonKarats {
		if rate, ok := snap.GoldPerGram[k]; !ok || !rate.IsPositive() {
			missingKarats = append(missingKarats, k)
		}
	}
	return missingKarats, !snap.SilverPerGram.IsPositive()
}
