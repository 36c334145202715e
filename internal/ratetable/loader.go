package ratetable

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dalfonso89/forex-rates/internal/models"
)

// Source is the remote rate provider
type Source interface {
	Latest(ctx context.Context, baseCurrency string) (models.LatestRates, error)
	Symbols(ctx context.Context) ([]string, error)
}

// Status of one fetched data slice
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusLoaded        Status = "loaded"
)

// ErrSuperseded is returned for a rate fetch whose result was discarded
// because a newer one had been requested.
var ErrSuperseded = errors.New("rates request superseded by a newer one")

// Snapshot is a consistent copy of the loader state. Rates and Currencies
// are replaced wholesale and never mutated, so they may be shared.
type Snapshot struct {
	Base         string
	Rates        models.RateSet
	Timestamp    int64
	RatesStatus  Status
	RatesError   error
	RatesPending bool

	Currencies        []string
	CurrenciesStatus  Status
	CurrenciesError   error
	CurrenciesPending bool
}

type slice struct {
	seq     uint64
	pending bool
	loaded  bool
	err     error
}

func (s *slice) status() Status {
	switch {
	case s.loaded:
		return StatusLoaded
	case s.pending:
		return StatusLoading
	default:
		return StatusUninitialized
	}
}

// Loader fetches rates and the supported currency list for one view
type Loader struct {
	source Source
	logger *logrus.Entry

	mu         sync.RWMutex
	rates      slice
	ratesBase  string
	rateSet    models.RateSet
	timestamp  int64
	currencies slice
	codes      []string

	inFlight sync.WaitGroup
}

// NewLoader creates an empty loader
func NewLoader(source Source, logger *logrus.Entry) *Loader {
	return &Loader{source: source, logger: logger}
}

// Mount starts both fetches in the background
func (l *Loader) Mount(ctx context.Context, baseCurrency string) {
	l.FetchRates(ctx, baseCurrency)
	l.FetchCurrencies(ctx)
}

// FetchRates starts a background rate fetch for baseCurrency. Requests are
// sequenced here, before the goroutine starts, so the last call wins.
func (l *Loader) FetchRates(ctx context.Context, baseCurrency string) {
	seq := l.beginRates()
	l.inFlight.Add(1)
	go func() {
		defer l.inFlight.Done()
		_ = l.runRates(ctx, seq, baseCurrency)
	}()
}

// FetchCurrencies starts a background fetch of the supported list
func (l *Loader) FetchCurrencies(ctx context.Context) {
	seq := l.beginCurrencies()
	l.inFlight.Add(1)
	go func() {
		defer l.inFlight.Done()
		_ = l.runCurrencies(ctx, seq)
	}()
}

// LoadRates fetches rates for baseCurrency and waits for the result
func (l *Loader) LoadRates(ctx context.Context, baseCurrency string) error {
	return l.runRates(ctx, l.beginRates(), baseCurrency)
}

// LoadCurrencies fetches the supported list and waits for the result
func (l *Loader) LoadCurrencies(ctx context.Context) error {
	return l.runCurrencies(ctx, l.beginCurrencies())
}

// Refresh loads both slices concurrently and returns the first failure
func (l *Loader) Refresh(ctx context.Context, baseCurrency string) error {
	var group errgroup.Group
	group.Go(func() error { return l.LoadRates(ctx, baseCurrency) })
	group.Go(func() error { return l.LoadCurrencies(ctx) })
	return group.Wait()
}

// Wait blocks until every background fetch has resolved
func (l *Loader) Wait() {
	l.inFlight.Wait()
}

// Snapshot returns the current state
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Snapshot{
		Base:              l.ratesBase,
		Rates:             l.rateSet,
		Timestamp:         l.timestamp,
		RatesStatus:       l.rates.status(),
		RatesError:        l.rates.err,
		RatesPending:      l.rates.pending,
		Currencies:        l.codes,
		CurrenciesStatus:  l.currencies.status(),
		CurrenciesError:   l.currencies.err,
		CurrenciesPending: l.currencies.pending,
	}
}

func (l *Loader) beginRates() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rates.seq++
	l.rates.pending = true
	return l.rates.seq
}

func (l *Loader) beginCurrencies() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currencies.seq++
	l.currencies.pending = true
	return l.currencies.seq
}

func (l *Loader) runRates(ctx context.Context, seq uint64, baseCurrency string) error {
	baseCurrency = strings.ToUpper(baseCurrency)
	latest, err := l.source.Latest(ctx, baseCurrency)

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.logger.WithField("base", baseCurrency)
	if seq != l.rates.seq {
		entry.WithField("seq", seq).Debug("Discarding superseded rates response")
		return ErrSuperseded
	}

	l.rates.pending = false
	if err != nil {
		l.rates.err = err
		entry.WithError(err).Error("Error fetching data")
		return err
	}

	l.rates.err = nil
	l.rates.loaded = true
	l.ratesBase = baseCurrency
	l.rateSet = latest.Rates
	l.timestamp = latest.Timestamp
	entry.WithField("count", len(latest.Rates)).Debug("Rates loaded")
	return nil
}

func (l *Loader) runCurrencies(ctx context.Context, seq uint64) error {
	codes, err := l.source.Symbols(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.currencies.seq {
		return nil
	}

	l.currencies.pending = false
	if err != nil {
		l.currencies.err = err
		l.logger.WithError(err).Error("Error fetching supported currencies")
		return err
	}

	l.currencies.err = nil
	l.currencies.loaded = true
	l.codes = codes
	l.logger.WithField("count", len(codes)).Debug("Supported currencies loaded")
	return nil
}
