package ratetable

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dalfonso89/forex-rates/internal/models"
)

// NotANumber is shown for codes without a usable rate
const NotANumber = "NaN"

// FormatRate renders the rate of code with exactly two decimals
func FormatRate(rates models.RateSet, code string) string {
	rate, ok := rates[code]
	switch {
	case !ok || math.IsNaN(rate):
		return NotANumber
	case math.IsInf(rate, 1):
		return "Infinity"
	case math.IsInf(rate, -1):
		return "-Infinity"
	}
	return decimal.NewFromFloat(rate).StringFixed(2)
}

// FormatTimestamp renders Unix seconds in loc with layout
func FormatTimestamp(unixSeconds int64, loc *time.Location, layout string) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unixSeconds, 0).In(loc).Format(layout)
}
