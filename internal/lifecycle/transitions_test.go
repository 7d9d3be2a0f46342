package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/lifecycle"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to lifecycle.Status
		ok       bool
	}{
		{lifecycle.StatusPending, lifecycle.StatusScheduled, true},
		{lifecycle.StatusPending, lifecycle.StatusRejected, true},
		{lifecycle.StatusPending, lifecycle.StatusCompleted, false},
		{lifecycle.StatusScheduled, lifecycle.StatusRescheduleRequested, true},
		{lifecycle.StatusScheduled, lifecycle.StatusCancellationRequested, true},
		{lifecycle.StatusScheduled, lifecycle.StatusCompleted, true},
		{lifecycle.StatusScheduled, lifecycle.StatusCancelled, true},
		{lifecycle.StatusScheduled, lifecycle.StatusNoShow, true},
		{lifecycle.StatusScheduled, lifecycle.StatusScheduled, false},
		{lifecycle.StatusRescheduleRequested, lifecycle.StatusRescheduled, true},
		{lifecycle.StatusRescheduleRequested, lifecycle.StatusScheduled, false},
		{lifecycle.StatusRescheduled, lifecycle.StatusRescheduleRequested, true},
		{lifecycle.StatusRescheduled, lifecycle.StatusCompleted, true},
		{lifecycle.StatusCancellationRequested, lifecycle.StatusCancelled, true},
		{lifecycle.StatusCancellationRequested, lifecycle.StatusCompleted, false},
		{lifecycle.StatusCompleted, lifecycle.StatusCancelled, false},
		{lifecycle.StatusCancelled, lifecycle.StatusScheduled, false},
		{lifecycle.StatusRejected, lifecycle.StatusScheduled, false},
		{lifecycle.StatusNoShow, lifecycle.StatusCompleted, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.ok, lifecycle.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, s := range []lifecycle.Status{
		lifecycle.StatusCompleted,
		lifecycle.StatusCancelled,
		lifecycle.StatusRejected,
		lifecycle.StatusNoShow,
	} {
		require.True(t, s.IsTerminal())
		require.Empty(t, lifecycle.TransitionsFrom(s))
	}
}

func TestActiveStatesCanReachNoShow(t *testing.T) {
	for _, s := range []lifecycle.Status{
		lifecycle.StatusPending,
		lifecycle.StatusScheduled,
		lifecycle.StatusRescheduled,
		lifecycle.StatusRescheduleRequested,
		lifecycle.StatusCancellationRequested,
	} {
		require.True(t, s.IsActive())
		require.True(t, lifecycle.CanTransition(s, lifecycle.StatusNoShow), "%s", s)
	}
}

func TestHasScheduledWindow(t *testing.T) {
	require.True(t, lifecycle.StatusScheduled.HasScheduledWindow())
	require.True(t, lifecycle.StatusRescheduled.HasScheduledWindow())
	require.True(t, lifecycle.StatusCompleted.HasScheduledWindow())
	require.False(t, lifecycle.StatusPending.HasScheduledWindow())
	require.False(t, lifecycle.StatusRejected.HasScheduledWindow())
}
