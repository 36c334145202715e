package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// MockForexServer imitates the remote rate provider
type MockForexServer struct {
	server *httptest.Server

	mu            sync.RWMutex
	rates         map[string]map[string]float64
	symbols       map[string]string
	timestamp     int64
	latestStatus  int
	symbolsStatus int
	latestBody    string
	symbolsBody   string

	latestCalls  atomic.Int64
	symbolsCalls atomic.Int64
	lastAPIKey   atomic.Value
}

// NewMockForexServer starts a provider serving the default fixture
func NewMockForexServer() *MockForexServer {
	mock := &MockForexServer{
		rates:         map[string]map[string]float64{},
		symbols:       map[string]string{},
		timestamp:     1700000000,
		latestStatus:  http.StatusOK,
		symbolsStatus: http.StatusOK,
	}
	mock.SetRates("USD", map[string]float64{"EUR": 0.9, "USD": 1.0, "GBP": 0.8})
	mock.SetRates("EUR", map[string]float64{"EUR": 1.0, "USD": 1.11, "GBP": 0.89})
	mock.SetSymbols(map[string]string{"EUR": "Euro", "USD": "United States Dollar", "GBP": "British Pound Sterling"})

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

// URL returns the provider base URL
func (m *MockForexServer) URL() string {
	return m.server.URL
}

// Close shuts the server down
func (m *MockForexServer) Close() {
	m.server.Close()
}

// SetRates replaces the rates served for base
func (m *MockForexServer) SetRates(base string, rates map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[base] = rates
}

// SetSymbols replaces the supported currency map
func (m *MockForexServer) SetSymbols(symbols map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols = symbols
}

// FailLatest makes /latest answer with status
func (m *MockForexServer) FailLatest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestStatus = status
}

// FailSymbols makes /symbols answer with status
func (m *MockForexServer) FailSymbols(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbolsStatus = status
}

// RawLatest makes /latest answer with a fixed body
func (m *MockForexServer) RawLatest(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestBody = body
}

// RawSymbols makes /symbols answer with a fixed body
func (m *MockForexServer) RawSymbols(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbolsBody = body
}

// LatestCalls counts requests to /latest
func (m *MockForexServer) LatestCalls() int64 {
	return m.latestCalls.Load()
}

// SymbolsCalls counts requests to /symbols
func (m *MockForexServer) SymbolsCalls() int64 {
	return m.symbolsCalls.Load()
}

// LastAPIKey returns the api_key of the most recent request
func (m *MockForexServer) LastAPIKey() string {
	key, _ := m.lastAPIKey.Load().(string)
	return key
}

func (m *MockForexServer) handler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m.lastAPIKey.Store(r.URL.Query().Get("api_key"))

	m.mu.RLock()
	defer m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	switch strings.TrimPrefix(r.URL.Path, "/") {
	case "latest":
		m.latestCalls.Add(1)
		if m.latestStatus != http.StatusOK {
			w.WriteHeader(m.latestStatus)
			return
		}
		if m.latestBody != "" {
			_, _ = w.Write([]byte(m.latestBody))
			return
		}
		base := r.URL.Query().Get("base")
		rates, ok := m.rates[base]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   map[string]interface{}{"statusCode": 400, "message": "invalid base currency"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"base":      base,
			"timestamp": m.timestamp,
			"rates":     rates,
		})
	case "symbols":
		m.symbolsCalls.Add(1)
		if m.symbolsStatus != http.StatusOK {
			w.WriteHeader(m.symbolsStatus)
			return
		}
		if m.symbolsBody != "" {
			_, _ = w.Write([]byte(m.symbolsBody))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"symbols": m.symbols,
		})
	default:
		http.NotFound(w, r)
	}
}
