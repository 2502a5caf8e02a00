package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedwatch/ptr-crawler/internal/fetch"
	"github.com/fedwatch/ptr-crawler/internal/store/storetest"
)

type fakeArchives struct {
	available map[int][]byte
	calls     []int
}

func (f *fakeArchives) YearArchive(_ context.Context, year int) ([]byte, error) {
	f.calls = append(f.calls, year)
	archive, ok := f.available[year]
	if !ok {
		return nil, fmt.Errorf("archive for %d returned 404: %w", year, fetch.ErrNotAvailable)
	}
	return archive, nil
}

func TestDiscoveryTerminatesOnFirstMissingYear(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	backend.SeedYear(2020)

	archives := &fakeArchives{available: map[int][]byte{
		2020: []byte("a"),
		2021: []byte("b"),
		2022: []byte("c"),
	}}

	finder := NewFinder(archives, backend.Connect(), zap.NewNop())
	years, err := finder.All(context.Background())
	require.NoError(t, err)

	require.Len(t, years, 3)
	require.Equal(t, 2020, years[0].Year)
	require.Equal(t, 2022, years[2].Year)
	require.Equal(t, []byte("b"), years[1].Archive)
	require.Equal(t, []int{2020, 2021, 2022, 2023}, archives.calls)

	// The failed year is never recorded as known.
	require.ElementsMatch(t, []int{2020, 2021, 2022}, backend.Years())
}

func TestDiscoveryIsExhaustedAfterDone(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	backend.SeedYear(2020)

	archives := &fakeArchives{available: map[int][]byte{}}
	finder := NewFinder(archives, backend.Connect(), zap.NewNop())

	_, ok, err := finder.Next(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	// A drained finder stays drained and stops probing the remote.
	_, ok, err = finder.Next(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []int{2020}, archives.calls)
}

func TestDiscoveryRequiresCheckpoint(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend() // no seeded years
	finder := NewFinder(&fakeArchives{}, backend.Connect(), zap.NewNop())

	_, _, err := finder.Next(context.Background())
	require.Error(t, err)
}

func TestDiscoveryRerunYieldsSameYears(t *testing.T) {
	t.Parallel()

	backend := storetest.NewBackend()
	backend.SeedYear(2021)
	available := map[int][]byte{2021: []byte("a"), 2022: []byte("b")}

	first := NewFinder(&fakeArchives{available: available}, backend.Connect(), zap.NewNop())
	years1, err := first.All(context.Background())
	require.NoError(t, err)

	// Checkpoint advanced to 2022; the rerun re-discovers 2022 onward.
	second := NewFinder(&fakeArchives{available: available}, backend.Connect(), zap.NewNop())
	years2, err := second.All(context.Background())
	require.NoError(t, err)

	require.Len(t, years1, 2)
	require.Len(t, years2, 1)
	require.Equal(t, 2022, years2[0].Year)
}
