package models

import "time"

// RateSet maps a currency code to its rate against a base currency
type RateSet map[string]float64

// Clone returns an independent copy of the set
func (r RateSet) Clone() RateSet {
	if r == nil {
		return nil
	}
	out := make(RateSet, len(r))
	for code, rate := range r {
		out[code] = rate
	}
	return out
}

// LatestRates is the decoded /latest payload
type LatestRates struct {
	Base      string  `json:"base"`
	Timestamp int64   `json:"timestamp"`
	Rates     RateSet `json:"rates"`
}

// SymbolsResponse is the decoded /symbols payload
type SymbolsResponse struct {
	Symbols map[string]string `json:"symbols"`
}

type HealthCheck struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Sessions  int       `json:"sessions"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
