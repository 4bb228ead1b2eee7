package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCSV = sampleHeader + "\n" +
	"Acme Plumbing,John,js@acme.test,555-0100,Springfield,Home Services,Plumbing,North,Great\n" +
	"Bright Sparks,Ada,ada@bright.test,555-0101,Shelbyville,Electrical,Wiring,Citywide,Fast\n"

// scriptedFetcher returns canned responses in order; the last one repeats.
type scriptedFetcher struct {
	mu        sync.Mutex
	calls     int
	responses []fetchResponse
}

type fetchResponse struct {
	body string
	err  error
}

func (f *scriptedFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[i]
	return r.body, r.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testClock drives the store's notion of time.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, cfg StoreConfig, fetcher TextFetcher, snapshots SnapshotStore) (*Store, *testClock, *[]time.Duration) {
	t.Helper()
	if cfg.SourceURL == "" {
		cfg.SourceURL = "https://files.example.com/providers.csv"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 5 * time.Minute
	}

	st := NewStore(cfg, fetcher, snapshots)

	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	st.now = clock.Now

	var sleeps []time.Duration
	st.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	return st, clock, &sleeps
}

func TestStore_SecondCallWithinTTLSkipsNetwork(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []fetchResponse{{body: validCSV}}}
	st, _, _ := newTestStore(t, StoreConfig{}, fetcher, nil)

	first := st.Providers(context.Background(), false)
	require.Len(t, first, 2)
	require.Equal(t, 1, fetcher.callCount())

	second := st.Providers(context.Background(), false)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.callCount(), "second call within TTL must not touch the network")
}

func TestStore_ForceRefreshAlwaysFetches(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []fetchResponse{{body: validCSV}}}
	st, _, _ := newTestStore(t, StoreConfig{}, fetcher, nil)

	st.Providers(context.Background(), false)
	require.Equal(t, 1, fetcher.callCount())

	st.Refresh(context.Background())
	assert.Equal(t, 2, fetcher.callCount(), "forced refresh must fetch despite fresh cache")
}

func TestStore_ExpiredCacheRefetches(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []fetchResponse{{body: validCSV}}}
	st, clock, _ := newTestStore(t, StoreConfig{TTL: time.Minute}, fetcher, nil)

	st.Providers(context.Background(), false)
	clock.Advance(2 * time.Minute)
	st.Providers(context.Background(), false)

	assert.Equal(t, 2, fetcher.callCount())
}

func TestStore_LinearBackoff(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("boom")}}}
	st, _, sleeps := newTestStore(t, StoreConfig{RetryAttempts: 3, RetryDelay: 2 * time.Second}, fetcher, nil)

	list := st.Providers(context.Background(), false)

	assert.Empty(t, list, "total failure with no fallback yields an empty list")
	assert.Equal(t, 3, fetcher.callCount())
	// delay * attemptNumber, no wait after the last attempt
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *sleeps)
}

func TestStore_ZeroValidRowsIsAFailure(t *testing.T) {
	// Syntactically fine CSV whose only data row is missing Company
	emptyResult := sampleHeader + "\n,NoCompany,,,,Cat,,,\n"
	fetcher := &scriptedFetcher{responses: []fetchResponse{{body: emptyResult}}}
	fallback := ProviderList{{ID: "fb", Company: "Fallback Co", Category: "Misc"}}
	st, _, _ := newTestStore(t, StoreConfig{RetryAttempts: 2, Fallback: fallback}, fetcher, nil)

	list := st.Providers(context.Background(), false)

	assert.Equal(t, fallback, list)
	assert.Equal(t, 2, fetcher.callCount(), "zero valid rows must consume every retry attempt")
}

func TestStore_FallsBackToFreshSnapshot(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	snapRecords := ProviderList{{ID: "s1", Company: "Snap Co", Category: "Cached"}}

	fetcher := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("network down")}}}
	st, clock, _ := newTestStore(t, StoreConfig{RetryAttempts: 2}, fetcher, snapshots)

	require.NoError(t, snapshots.Save(context.Background(), Snapshot{
		Records:   snapRecords,
		FetchedAt: clock.Now().Add(-time.Minute), // within the 5m TTL
	}))

	list := st.Providers(context.Background(), false)
	assert.Equal(t, snapRecords, list)
}

func TestStore_StaleSnapshotSkipped(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	fetcher := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("network down")}}}
	fallback := ProviderList{{ID: "fb", Company: "Fallback Co", Category: "Misc"}}
	st, clock, _ := newTestStore(t, StoreConfig{RetryAttempts: 1, Fallback: fallback}, fetcher, snapshots)

	require.NoError(t, snapshots.Save(context.Background(), Snapshot{
		Records:   ProviderList{{ID: "s1", Company: "Old", Category: "Cached"}},
		FetchedAt: clock.Now().Add(-time.Hour), // well past TTL
	}))

	list := st.Providers(context.Background(), false)
	assert.Equal(t, fallback, list, "stale snapshot must be skipped in favor of the next tier")
}

func TestStore_FallsBackToStaleMemory(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{body: validCSV},
		{err: errors.New("network down")},
	}}
	st, clock, _ := newTestStore(t, StoreConfig{TTL: time.Minute, RetryAttempts: 2}, fetcher, nil)

	first := st.Providers(context.Background(), false)
	require.Len(t, first, 2)

	// Expire both tiers, then fail every fetch
	clock.Advance(10 * time.Minute)
	second := st.Providers(context.Background(), false)

	assert.Equal(t, first, second, "stale in-memory entry is the fallback of last resort before static data")
	assert.Equal(t, 3, fetcher.callCount())
}

func TestStore_FallsBackToStaticFallback(t *testing.T) {
	fallback := ProviderList{{ID: "fb", Company: "Fallback Co", Category: "Misc"}}
	fetcher := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("network down")}}}
	st, _, _ := newTestStore(t, StoreConfig{RetryAttempts: 2, Fallback: fallback}, fetcher, nil)

	list := st.Providers(context.Background(), false)
	assert.Equal(t, fallback, list)
}

func TestStore_TotalFailureYieldsEmptyList(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("network down")}}}
	st, _, _ := newTestStore(t, StoreConfig{RetryAttempts: 1}, fetcher, nil)

	list := st.Providers(context.Background(), false)
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_SuccessOverwritesBothTiers(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	fetcher := &scriptedFetcher{responses: []fetchResponse{{body: validCSV}}}
	st, clock, _ := newTestStore(t, StoreConfig{}, fetcher, snapshots)

	list := st.Providers(context.Background(), false)
	require.Len(t, list, 2)

	snap, err := snapshots.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap, "successful fetch must persist a snapshot")
	assert.Equal(t, list, snap.Records)
	assert.Equal(t, clock.Now(), snap.FetchedAt)
}

func TestStore_FailedFetchDoesNotEvictSnapshot(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	fetcher := &scriptedFetcher{responses: []fetchResponse{
		{body: validCSV},
		{err: errors.New("network down")},
	}}
	st, clock, _ := newTestStore(t, StoreConfig{TTL: time.Minute, RetryAttempts: 1}, fetcher, snapshots)

	st.Providers(context.Background(), false)
	clock.Advance(10 * time.Minute)
	st.Providers(context.Background(), false) // fails, falls back

	snap, err := snapshots.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap, "failed fetch must not evict the persisted snapshot")
}

func TestStore_ConcurrentCallsShareOneFlight(t *testing.T) {
	fetcher := &scriptedFetcher{responses: []fetchResponse{{body: validCSV}}}
	st, _, _ := newTestStore(t, StoreConfig{}, fetcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list := st.Providers(context.Background(), false)
			assert.Len(t, list, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fetcher.callCount(), "concurrent cold-cache calls must deduplicate to one fetch")
}
