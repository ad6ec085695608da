package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	entries []Entry
}

func (r *memoryRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindByPerformer(_ context.Context, performerID uuid.UUID) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.PerformedBy != nil && *e.PerformedBy == performerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindByRole(_ context.Context, roleID uuid.UUID) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.RoleID != nil && *e.RoleID == roleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindByDateRange(_ context.Context, filter RangeFilter) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if !e.PerformedAt.Before(filter.From) && !e.PerformedAt.After(filter.To) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindByAction(_ context.Context, action Action) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out, nil
}

func entryAt(action Action, at time.Time) Entry {
	return Entry{ID: uuid.New(), Action: action, PerformedAt: at}
}

func TestByDateRangeRejectsInvertedRange(t *testing.T) {
	svc := NewService(&memoryRepo{})
	now := time.Now().UTC()

	_, err := svc.ByDateRange(context.Background(), now, now.Add(-time.Hour))
	require.Error(t, err)
}

func TestByDateRange(t *testing.T) {
	now := time.Now().UTC()
	repo := &memoryRepo{entries: []Entry{
		entryAt(ActionAssignRole, now.Add(-48*time.Hour)),
		entryAt(ActionGrantPermission, now.Add(-time.Hour)),
		entryAt(ActionRevokeRole, now),
	}}
	svc := NewService(repo)

	got, err := svc.ByDateRange(context.Background(), now.Add(-2*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestByUserAndPerformer(t *testing.T) {
	user := uuid.New()
	actor := uuid.New()
	e := Entry{ID: uuid.New(), UserID: &user, PerformedBy: &actor, Action: ActionAssignRole, PerformedAt: time.Now().UTC()}
	svc := NewService(&memoryRepo{entries: []Entry{e}})
	ctx := context.Background()

	got, err := svc.ByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.ByPerformer(ctx, actor)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.ByUser(ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDigestCountsPerAction(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	repo := &memoryRepo{entries: []Entry{
		entryAt(ActionAssignRole, day.Add(2*time.Hour)),
		entryAt(ActionAssignRole, day.Add(5*time.Hour)),
		entryAt(ActionGrantPermission, day.Add(9*time.Hour)),
		entryAt(ActionRevokeRole, day.AddDate(0, 0, 1)),
	}}
	svc := NewService(repo)

	counts, err := svc.Digest(context.Background(), day.Add(13*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, counts[ActionAssignRole])
	require.Equal(t, 1, counts[ActionGrantPermission])
	require.Zero(t, counts[ActionRevokeRole])
}
