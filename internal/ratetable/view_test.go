package ratetable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalfonso89/forex-rates/internal/models"
)

func newTestView(source Source, preferences Preferences) *View {
	return NewView(source, preferences, Options{
		ClientID:    "client-1",
		DefaultBase: "USD",
		PageSize:    20,
		Location:    time.UTC,
		TimeLayout:  "1/2/2006, 3:04:05 PM",
	}, testEntry())
}

func mountedView(t *testing.T, source Source) *View {
	t.Helper()
	view := newTestView(source, newMemoryPreferences())
	view.Mount(context.Background())
	view.Wait()
	return view
}

func TestView_RendersByName(t *testing.T) {
	view := mountedView(t, newFakeSource())

	page := view.Render()
	assert.Equal(t, []Row{
		{Code: "EUR", Rate: "0.90"},
		{Code: "GBP", Rate: "0.80"},
		{Code: "USD", Rate: "1.00"},
	}, page.Rows)
	assert.False(t, page.Loading)
	assert.Equal(t, "11/14/2023, 10:13:20 PM", page.LastUpdated)
	assert.Equal(t, []PageButton{{Number: 1, Active: true}}, page.Pages)
}

func TestView_RendersByRateWithoutNetwork(t *testing.T) {
	source := newFakeSource()
	view := mountedView(t, source)
	latestBefore, symbolsBefore := source.calls()

	view.SelectSort(SortByRate)
	page := view.Render()

	assert.Equal(t, []Row{
		{Code: "GBP", Rate: "0.80"},
		{Code: "EUR", Rate: "0.90"},
		{Code: "USD", Rate: "1.00"},
	}, page.Rows)
	assert.True(t, page.SortOptions[1].Selected)

	latestAfter, symbolsAfter := source.calls()
	assert.Equal(t, latestBefore, latestAfter)
	assert.Equal(t, symbolsBefore, symbolsAfter)
}

func TestView_FortyFiveCurrencies(t *testing.T) {
	source := newFakeSource()
	source.symbols = make([]string, 45)
	rates := models.RateSet{}
	for i := range source.symbols {
		code := fmt.Sprintf("C%02d", i)
		source.symbols[i] = code
		rates[code] = float64(i)
	}
	source.rates["USD"] = models.LatestRates{Base: "USD", Timestamp: 1700000000, Rates: rates}

	view := mountedView(t, source)
	page := view.Render()
	require.Len(t, page.Pages, 3)
	assert.Len(t, page.Rows, 20)

	view.GoToPage(3)
	page = view.Render()
	assert.Len(t, page.Rows, 5)
	assert.Equal(t, 3, page.CurrentPage)
	assert.True(t, page.Pages[2].Active)
	assert.False(t, page.Pages[0].Active)

	view.GoToPage(99)
	assert.Equal(t, 3, view.State().Page)
}

func TestView_FailedFetchStaysLoading(t *testing.T) {
	source := newFakeSource()
	source.latestErr = errNetwork
	source.symbolsErr = errNetwork

	view := newTestView(source, newMemoryPreferences())
	assert.NotPanics(t, func() {
		view.Mount(context.Background())
		view.Wait()
	})

	page := view.Render()
	assert.True(t, page.Loading)
	assert.Empty(t, page.Rows)
	assert.Empty(t, page.LastUpdated)
	assert.Equal(t, StatusUninitialized, page.RatesStatus)
	assert.Contains(t, page.RatesError, "network unreachable")
	assert.Contains(t, page.CurrenciesError, "network unreachable")
}

func TestView_MissingRateRendersNaN(t *testing.T) {
	source := newFakeSource()
	source.symbols = append(source.symbols, "XAU")
	view := mountedView(t, source)

	page := view.Render()
	require.Len(t, page.Rows, 4)
	assert.Equal(t, Row{Code: "XAU", Rate: NotANumber}, page.Rows[3])
}

func TestView_SelectBase(t *testing.T) {
	source := newFakeSource()
	view := mountedView(t, source)
	view.GoToPage(1)

	err := view.SelectBase(context.Background(), "JPY")
	assert.True(t, errors.Is(err, ErrUnsupportedCurrency))

	latestBefore, _ := source.calls()
	require.NoError(t, view.SelectBase(context.Background(), "usd"))
	view.Wait()
	latestAfter, _ := source.calls()
	assert.Equal(t, latestBefore, latestAfter, "same base must not refetch")

	require.NoError(t, view.SelectBase(context.Background(), "eur"))
	view.Wait()

	page := view.Render()
	assert.Equal(t, "EUR", page.Base)
	assert.Equal(t, "11/14/2023, 10:23:20 PM", page.LastUpdated)
	assert.Equal(t, Row{Code: "USD", Rate: "1.11"}, page.Rows[2])
	assert.True(t, page.BaseOptions[0].Selected)
}

func TestView_DarkModeRoundTrip(t *testing.T) {
	preferences := newMemoryPreferences()
	ctx := context.Background()

	view := newTestView(newFakeSource(), preferences)
	view.Mount(ctx)
	view.Wait()
	assert.False(t, view.State().DarkMode)
	assert.Equal(t, ThemeFor(false), view.Render().Theme)

	enabled, err := view.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, "dark", view.Render().Theme.Root)

	remounted := newTestView(newFakeSource(), preferences)
	remounted.Mount(ctx)
	remounted.Wait()
	assert.True(t, remounted.State().DarkMode)

	enabled, err = remounted.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	persisted, err := preferences.DarkMode(ctx, "client-1")
	require.NoError(t, err)
	assert.False(t, persisted)
}

func TestView_DarkModePersistFailure(t *testing.T) {
	preferences := newMemoryPreferences()
	preferences.err = errors.New("disk full")

	view := newTestView(newFakeSource(), preferences)
	view.Mount(context.Background())
	view.Wait()

	enabled, err := view.ToggleDarkMode(context.Background())
	assert.Error(t, err)
	assert.True(t, enabled)
	assert.True(t, view.State().DarkMode)
}

func TestView_RatesFailWithListLoaded(t *testing.T) {
	source := newFakeSource()
	source.latestErr = errNetwork

	view := mountedView(t, source)
	page := view.Render()

	assert.False(t, page.Loading)
	assert.Equal(t, []Row{
		{Code: "EUR", Rate: NotANumber},
		{Code: "GBP", Rate: NotANumber},
		{Code: "USD", Rate: NotANumber},
	}, page.Rows)
	assert.Empty(t, page.LastUpdated)
	assert.Equal(t, StatusUninitialized, page.RatesStatus)
	assert.Contains(t, page.RatesError, "network unreachable")
	assert.Equal(t, StatusLoaded, page.CurrenciesStatus)
}

// orderedPreferences records every write; earlier writes are slower, so
// unserialized callers would land out of order
type orderedPreferences struct {
	mu     sync.Mutex
	calls  int
	writes []bool
}

func (p *orderedPreferences) DarkMode(ctx context.Context, clientID string) (bool, error) {
	return false, nil
}

func (p *orderedPreferences) SetDarkMode(ctx context.Context, clientID string, enabled bool) error {
	p.mu.Lock()
	p.calls++
	delay := time.Duration(10-p.calls%10) * time.Millisecond
	p.mu.Unlock()

	time.Sleep(delay)

	p.mu.Lock()
	p.writes = append(p.writes, enabled)
	p.mu.Unlock()
	return nil
}

func TestView_ConcurrentTogglesPersistInOrder(t *testing.T) {
	preferences := &orderedPreferences{}
	view := newTestView(newFakeSource(), preferences)

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = view.ToggleDarkMode(context.Background())
		}()
	}
	wg.Wait()

	require.Len(t, preferences.writes, 9)
	for i, written := range preferences.writes {
		assert.Equal(t, i%2 == 0, written, "write %d", i)
	}
	assert.Equal(t, preferences.writes[8], view.State().DarkMode)
}

func TestPlaceholder(t *testing.T) {
	page := Placeholder(Options{PageSize: 20})

	assert.Equal(t, "USD", page.Base)
	assert.Equal(t, SortByName, page.Sort)
	assert.True(t, page.Loading)
	assert.False(t, page.Pending)
	assert.Empty(t, page.Rows)
	assert.Empty(t, page.Pages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, StatusUninitialized, page.RatesStatus)
	assert.Equal(t, ThemeFor(false), page.Theme)
}
