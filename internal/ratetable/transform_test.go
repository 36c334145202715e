package ratetable

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalfonso89/forex-rates/internal/models"
)

func fixtureData() Data {
	return Data{
		Currencies: []string{"EUR", "USD", "GBP"},
		Rates:      models.RateSet{"EUR": 0.9, "USD": 1.0, "GBP": 0.8},
	}
}

func randomCodes(r *rand.Rand, n int) []string {
	seen := map[string]bool{}
	codes := make([]string, 0, n)
	for len(codes) < n {
		code := string([]byte{byte('A' + r.Intn(26)), byte('A' + r.Intn(26)), byte('A' + r.Intn(26))})
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

func TestSortCurrencies(t *testing.T) {
	data := fixtureData()

	tests := []struct {
		name     string
		option   SortOption
		expected []string
	}{
		{name: "by name", option: SortByName, expected: []string{"EUR", "GBP", "USD"}},
		{name: "by rate", option: SortByRate, expected: []string{"GBP", "EUR", "USD"}},
		{name: "unknown option keeps input order", option: SortOption("volume"), expected: []string{"EUR", "USD", "GBP"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SortCurrencies(data.Currencies, tt.option, data.Rates))
		})
	}
}

func TestSortCurrencies_ByNameIsNonDecreasing(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		codes := randomCodes(r, 1+r.Intn(200))
		sorted := SortCurrencies(codes, SortByName, nil)

		require.Len(t, sorted, len(codes))
		for i := 1; i < len(sorted); i++ {
			assert.LessOrEqual(t, sorted[i-1], sorted[i])
		}
	}
}

func TestSortCurrencies_ByRateIsNonDecreasing(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 50; round++ {
		codes := randomCodes(r, 1+r.Intn(200))
		rates := models.RateSet{}
		for _, code := range codes {
			// plenty of ties to exercise stability
			rates[code] = float64(r.Intn(20)) / 4
		}

		sorted := SortCurrencies(codes, SortByRate, rates)
		require.Len(t, sorted, len(codes))
		for i := 1; i < len(sorted); i++ {
			assert.LessOrEqual(t, rates[sorted[i-1]], rates[sorted[i]])
		}
	}
}

func TestSortCurrencies_ByRateIsStableForTies(t *testing.T) {
	codes := []string{"CCC", "AAA", "BBB", "DDD"}
	rates := models.RateSet{"CCC": 1, "AAA": 1, "BBB": 0.5, "DDD": 1}

	assert.Equal(t, []string{"BBB", "CCC", "AAA", "DDD"}, SortCurrencies(codes, SortByRate, rates))
}

func TestSortCurrencies_ByRatePutsMissingRatesLast(t *testing.T) {
	codes := []string{"XAU", "EUR", "BTC", "GBP", "ZZZ"}
	rates := models.RateSet{"EUR": 0.9, "GBP": 0.8, "ZZZ": math.NaN()}

	assert.Equal(t, []string{"GBP", "EUR", "XAU", "BTC", "ZZZ"}, SortCurrencies(codes, SortByRate, rates))
}

func TestSortCurrencies_DoesNotMutateInput(t *testing.T) {
	data := fixtureData()
	input := append([]string(nil), data.Currencies...)

	first := SortCurrencies(data.Currencies, SortByName, data.Rates)
	second := SortCurrencies(data.Currencies, SortByName, data.Rates)

	assert.Equal(t, input, data.Currencies)
	assert.Equal(t, first, second)

	first[0] = "XXX"
	assert.Equal(t, input, data.Currencies)
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count, size, expected int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{45, 20, 3},
		{5, 0, 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.count, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.expected, TotalPages(tt.count, tt.size))
		})
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 1, ClampPage(-4, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 1, ClampPage(5, 0))
}

func TestPaginate_ConcatenationRebuildsList(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	codes := SortCurrencies(randomCodes(r, 137), SortByName, nil)

	for _, size := range []int{1, 2, 7, 20, 136, 137, 500} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			total := TotalPages(len(codes), size)
			var rebuilt []string
			for page := 1; page <= total; page++ {
				chunk := Paginate(codes, page, size)
				if page < total {
					assert.Len(t, chunk, size)
				} else {
					assert.NotEmpty(t, chunk)
					assert.LessOrEqual(t, len(chunk), size)
				}
				rebuilt = append(rebuilt, chunk...)
			}
			assert.Equal(t, codes, rebuilt)
		})
	}
}

func TestPaginate_OutOfRange(t *testing.T) {
	codes := []string{"A", "B", "C"}
	assert.Empty(t, Paginate(codes, 0, 2))
	assert.Empty(t, Paginate(codes, 3, 2))
	assert.Equal(t, []string{"C"}, Paginate(codes, 2, 2))
}

func TestDerive(t *testing.T) {
	t.Run("fixture by name", func(t *testing.T) {
		state := NewViewState("USD", 20)
		derived := Derive(state, fixtureData())

		assert.Equal(t, []string{"EUR", "GBP", "USD"}, derived.PageCodes)
		assert.Equal(t, 1, derived.TotalPages)
		assert.False(t, derived.Loading)
	})

	t.Run("forty five currencies", func(t *testing.T) {
		codes := make([]string, 45)
		for i := range codes {
			codes[i] = fmt.Sprintf("C%02d", i)
		}
		state := NewViewState("USD", 20)
		state.Page = 3

		derived := Derive(state, Data{Currencies: codes})
		assert.Equal(t, 3, derived.TotalPages)
		assert.Equal(t, 3, derived.Page)
		assert.Len(t, derived.PageCodes, 5)
	})

	t.Run("page clamped after list shrinks", func(t *testing.T) {
		state := NewViewState("USD", 2)
		state.Page = 7

		derived := Derive(state, fixtureData())
		assert.Equal(t, 2, derived.Page)
		assert.Equal(t, []string{"USD"}, derived.PageCodes)
	})

	t.Run("empty list is loading", func(t *testing.T) {
		derived := Derive(NewViewState("USD", 20), Data{})
		assert.True(t, derived.Loading)
		assert.Equal(t, 0, derived.TotalPages)
		assert.Equal(t, 1, derived.Page)
		assert.Empty(t, derived.PageCodes)
	})
}

func TestParseSortOption(t *testing.T) {
	option, err := ParseSortOption(" Rate ")
	require.NoError(t, err)
	assert.Equal(t, SortByRate, option)

	option, err = ParseSortOption("name")
	require.NoError(t, err)
	assert.Equal(t, SortByName, option)

	_, err = ParseSortOption("volume")
	assert.Error(t, err)
}
