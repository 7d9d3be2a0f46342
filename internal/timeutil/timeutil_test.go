package timeutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/muhammadworks94/tutorhub/internal/timeutil"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// пересекающиеся интервалы
	require.True(t, timeutil.Overlaps(
		base, base.Add(time.Hour),
		base.Add(30*time.Minute), base.Add(90*time.Minute),
	))

	// смежные интервалы не пересекаются (полуоткрытые)
	require.False(t, timeutil.Overlaps(
		base, base.Add(time.Hour),
		base.Add(time.Hour), base.Add(2*time.Hour),
	))

	// вложенный интервал
	require.True(t, timeutil.Overlaps(
		base, base.Add(2*time.Hour),
		base.Add(30*time.Minute), base.Add(time.Hour),
	))

	// непересекающиеся
	require.False(t, timeutil.Overlaps(
		base, base.Add(time.Hour),
		base.Add(3*time.Hour), base.Add(4*time.Hour),
	))
}

func TestOverlapsAny(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	busy := []timeutil.Interval{
		{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour)},
		{Start: base.Add(5 * time.Hour), End: base.Add(6 * time.Hour)},
	}

	require.True(t, timeutil.OverlapsAny(base.Add(2*time.Hour+30*time.Minute), base.Add(4*time.Hour), busy))
	require.False(t, timeutil.OverlapsAny(base, base.Add(time.Hour), busy))
	require.False(t, timeutil.OverlapsAny(base, base.Add(time.Hour), nil))
}

func TestResolveLocation(t *testing.T) {
	loc, ok := timeutil.ResolveLocation("Europe/Berlin")
	require.True(t, ok)
	require.Equal(t, "Europe/Berlin", loc.String())

	loc, ok = timeutil.ResolveLocation("")
	require.False(t, ok)
	require.Equal(t, time.UTC, loc)

	loc, ok = timeutil.ResolveLocation("Mars/Olympus")
	require.False(t, ok)
	require.Equal(t, time.UTC, loc)
}

func TestFromWallClock(t *testing.T) {
	loc, ok := timeutil.ResolveLocation("America/New_York")
	require.True(t, ok)

	// обычный день
	got, ok := timeutil.FromWallClock(2026, time.March, 2, 9*60+30, loc)
	require.True(t, ok)
	require.Equal(t, 9, got.Hour())
	require.Equal(t, 30, got.Minute())

	// 8 марта 2026, 02:30 местного не существует (переход на летнее время)
	_, ok = timeutil.FromWallClock(2026, time.March, 8, 2*60+30, loc)
	require.False(t, ok)

	// час спустя время снова существует
	got, ok = timeutil.FromWallClock(2026, time.March, 8, 3*60+30, loc)
	require.True(t, ok)
	require.Equal(t, 3, got.Hour())
}

func TestFromWallClockUTC(t *testing.T) {
	got, ok := timeutil.FromWallClock(2026, time.March, 2, 0, time.UTC)
	require.True(t, ok)
	require.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)
}
