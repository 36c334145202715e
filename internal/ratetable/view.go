package ratetable

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnsupportedCurrency is returned when a base outside the supported list is selected
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Preferences persists the dark mode flag of a client
type Preferences interface {
	DarkMode(ctx context.Context, clientID string) (bool, error)
	SetDarkMode(ctx context.Context, clientID string, enabled bool) error
}

// Options configures a View
type Options struct {
	ClientID    string
	DefaultBase string
	PageSize    int
	Location    *time.Location
	TimeLayout  string
}

// View is one client's rate table: its state, its loader and its preferences
type View struct {
	options     Options
	loader      *Loader
	preferences Preferences
	logger      *logrus.Entry

	mu    sync.Mutex
	state ViewState

	// serializes toggles so writes reach the store in flip order
	toggleMu sync.Mutex
}

// NewView creates an unmounted view
func NewView(source Source, preferences Preferences, options Options, logger *logrus.Entry) *View {
	if options.DefaultBase == "" {
		options.DefaultBase = "USD"
	}
	if options.TimeLayout == "" {
		options.TimeLayout = time.DateTime
	}
	entry := logger.WithField("client_id", options.ClientID)
	return &View{
		options:     options,
		loader:      NewLoader(source, entry),
		preferences: preferences,
		logger:      entry,
		state:       NewViewState(options.DefaultBase, options.PageSize),
	}
}

// Mount reads the persisted dark mode flag and starts both fetches
func (v *View) Mount(ctx context.Context) {
	darkMode, err := v.preferences.DarkMode(ctx, v.options.ClientID)
	if err != nil {
		v.logger.WithError(err).Warn("Failed to read dark mode preference")
	}

	v.mu.Lock()
	v.state.DarkMode = darkMode
	base := v.state.Base
	v.mu.Unlock()

	v.loader.Mount(ctx, base)
}

// SelectBase switches the base currency and refetches rates when it changed.
// The page is left as is.
func (v *View) SelectBase(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("%w: empty code", ErrUnsupportedCurrency)
	}

	snapshot := v.loader.Snapshot()
	if snapshot.CurrenciesStatus == StatusLoaded && !contains(snapshot.Currencies, code) {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
	}

	v.mu.Lock()
	changed := v.state.Base != code
	v.state.Base = code
	v.mu.Unlock()

	if changed {
		v.loader.FetchRates(ctx, code)
	}
	return nil
}

// SelectSort changes the ordering; no request is made
func (v *View) SelectSort(option SortOption) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Sort = option
}

// GoToPage moves to page, clamped into the current page range
func (v *View) GoToPage(page int) {
	data := v.data()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Page = ClampPage(page, TotalPages(len(data.Currencies), v.state.PageSize))
}

// ToggleDarkMode flips the flag and persists it. The in-memory flag flips even
// when persisting fails; the error is returned for the caller to report.
func (v *View) ToggleDarkMode(ctx context.Context) (bool, error) {
	v.toggleMu.Lock()
	defer v.toggleMu.Unlock()

	v.mu.Lock()
	v.state.DarkMode = !v.state.DarkMode
	enabled := v.state.DarkMode
	v.mu.Unlock()

	if err := v.preferences.SetDarkMode(ctx, v.options.ClientID, enabled); err != nil {
		return enabled, fmt.Errorf("persist dark mode: %w", err)
	}
	return enabled, nil
}

// State returns a copy of the view state
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Snapshot exposes the loader state
func (v *View) Snapshot() Snapshot {
	return v.loader.Snapshot()
}

// Wait blocks until background fetches have resolved
func (v *View) Wait() {
	v.loader.Wait()
}

// Render derives the current page and builds the render model
func (v *View) Render() Page {
	snapshot := v.loader.Snapshot()
	data := Data{Currencies: snapshot.Currencies, Rates: snapshot.Rates}

	v.mu.Lock()
	derived := Derive(v.state, data)
	v.state.Page = derived.Page
	state := v.state
	v.mu.Unlock()

	return buildPage(state, derived, snapshot, v.options)
}

// Placeholder is the page of a client that has no view yet: default state,
// nothing fetched.
func Placeholder(options Options) Page {
	if options.DefaultBase == "" {
		options.DefaultBase = "USD"
	}
	state := NewViewState(options.DefaultBase, options.PageSize)
	snapshot := Snapshot{RatesStatus: StatusUninitialized, CurrenciesStatus: StatusUninitialized}
	return buildPage(state, Derive(state, Data{}), snapshot, options)
}

func (v *View) data() Data {
	snapshot := v.loader.Snapshot()
	return Data{Currencies: snapshot.Currencies, Rates: snapshot.Rates}
}

func contains(codes []string, code string) bool {
	for _, candidate := range codes {
		if candidate == code {
			return true
		}
	}
	return false
}
