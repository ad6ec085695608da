package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service exposes the audit log read queries for external reporting. The
// authorization decision path never consults it.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ByUser returns entries about a user, newest first.
func (s *Service) ByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	return s.repo.FindByUser(ctx, userID)
}

// ByPerformer returns entries recorded by an acting user, newest first.
func (s *Service) ByPerformer(ctx context.Context, performerID uuid.UUID) ([]Entry, error) {
	return s.repo.FindByPerformer(ctx, performerID)
}

// ByRole returns entries about a role, newest first.
func (s *Service) ByRole(ctx context.Context, roleID uuid.UUID) ([]Entry, error) {
	return s.repo.FindByRole(ctx, roleID)
}

// ByDateRange returns entries inside a closed range, newest first.
func (s *Service) ByDateRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("audit: range end %s precedes start %s", to, from)
	}
	return s.repo.FindByDateRange(ctx, RangeFilter{From: from, To: to})
}

// ByAction returns entries with the given action tag, newest first.
func (s *Service) ByAction(ctx context.Context, action Action) ([]Entry, error) {
	return s.repo.FindByAction(ctx, action)
}

// Digest summarizes one day of mutations per action kind, for the nightly
// reporting job.
func (s *Service) Digest(ctx context.Context, day time.Time) (map[Action]int, error) {
	from := day.Truncate(24 * time.Hour)
	to := from.Add(24*time.Hour - time.Nanosecond)
	entries, err := s.repo.FindByDateRange(ctx, RangeFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	counts := make(map[Action]int, 4)
	for _, e := range entries {
		counts[e.Action]++
	}
	return counts, nil
}
