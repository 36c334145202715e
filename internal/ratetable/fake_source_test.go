package ratetable

import (
	"context"
	"errors"
	"sync"

	"github.com/dalfonso89/forex-rates/internal/models"
	"github.com/dalfonso89/forex-rates/internal/testutils"
	"github.com/sirupsen/logrus"
)

var errNetwork = errors.New("network unreachable")

type fakeSource struct {
	mu         sync.Mutex
	rates      map[string]models.LatestRates
	symbols    []string
	latestErr  error
	symbolsErr error
	gates      map[string]chan struct{}

	latestCalls  int
	symbolsCalls int
}

func newFakeSource() *fakeSource {
	fixture := testutils.MockLatestRates()
	return &fakeSource{
		rates: map[string]models.LatestRates{
			"USD": fixture,
			"EUR": {Base: "EUR", Timestamp: 1700000600, Rates: models.RateSet{"EUR": 1, "USD": 1.11, "GBP": 0.89}},
		},
		symbols: []string{"EUR", "USD", "GBP"},
		gates:   map[string]chan struct{}{},
	}
}

// hold blocks Latest for base until the returned func is called
func (f *fakeSource) hold(base string) func() {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[base] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeSource) Latest(ctx context.Context, base string) (models.LatestRates, error) {
	f.mu.Lock()
	f.latestCalls++
	gate := f.gates[base]
	err := f.latestErr
	latest, ok := f.rates[base]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.LatestRates{}, ctx.Err()
		}
	}
	if err != nil {
		return models.LatestRates{}, err
	}
	if !ok {
		return models.LatestRates{}, errors.New("unknown base")
	}
	return latest, nil
}

func (f *fakeSource) Symbols(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbolsCalls++
	if f.symbolsErr != nil {
		return nil, f.symbolsErr
	}
	return append([]string(nil), f.symbols...), nil
}

func (f *fakeSource) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latestCalls, f.symbolsCalls
}

func testEntry() *logrus.Entry {
	return testutils.MockLogger().Component("ratetable")
}

type memoryPreferences struct {
	mu     sync.Mutex
	values map[string]bool
	err    error
}

func newMemoryPreferences() *memoryPreferences {
	return &memoryPreferences{values: map[string]bool{}}
}

func (m *memoryPreferences) DarkMode(ctx context.Context, clientID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[clientID], m.err
}

func (m *memoryPreferences) SetDarkMode(ctx context.Context, clientID string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[clientID] = enabled
	return nil
}
