package service

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/dalfonso89/forex-rates/internal/config"
	"github.com/dalfonso89/forex-rates/internal/logger"
	"github.com/dalfonso89/forex-rates/internal/models"
)

const (
	endpointLatest  = "latest"
	endpointSymbols = "symbols"
)

// ForexClient talks to the remote rate provider
type ForexClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Entry

	singleFlightGroup singleflight.Group
}

// envelope covers the fields shared by every provider payload
type envelope struct {
	Success *bool           `json:"success"`
	Error   json.RawMessage `json:"error"`
}

type latestPayload struct {
	envelope
	Base      string                     `json:"base"`
	Timestamp int64                      `json:"timestamp"`
	Rates     map[string]json.RawMessage `json:"rates"`
}

type symbolsPayload struct {
	envelope
	Symbols map[string]string `json:"symbols"`
}

// NewForexClient creates a client for the configured provider
func NewForexClient(configuration config.ForexAPI, log *logger.Logger) *ForexClient {
	httpTransport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	return &ForexClient{
		baseURL:    strings.TrimRight(configuration.BaseURL, "/"),
		apiKey:     configuration.APIKey,
		httpClient: &http.Client{Timeout: configuration.Timeout, Transport: httpTransport},
		logger:     log.Component("forex-client"),
	}
}

// Latest fetches the rate set for baseCurrency
func (client *ForexClient) Latest(ctx context.Context, baseCurrency string) (models.LatestRates, error) {
	baseCurrency = strings.ToUpper(baseCurrency)
	result, err, shared := client.singleFlightGroup.Do("latest:"+baseCurrency, func() (interface{}, error) {
		query := url.Values{}
		query.Set("base", baseCurrency)

		var payload latestPayload
		if err := client.getJSON(ctx, endpointLatest, query, &payload); err != nil {
			return models.LatestRates{}, err
		}
		if payload.Rates == nil {
			return models.LatestRates{}, &FetchError{Kind: ErrorKindDecode, Op: endpointLatest, Err: errors.New("response has no rates")}
		}

		base := payload.Base
		if base == "" {
			base = baseCurrency
		}
		return models.LatestRates{
			Base:      base,
			Timestamp: payload.Timestamp,
			Rates:     decodeRates(payload.Rates),
		}, nil
	})
	if err != nil {
		return models.LatestRates{}, err
	}

	latest := result.(models.LatestRates)
	if shared {
		// callers must not share the map
		latest.Rates = latest.Rates.Clone()
	}
	return latest, nil
}

// Symbols fetches every currency code the provider supports, sorted by code
func (client *ForexClient) Symbols(ctx context.Context) ([]string, error) {
	result, err, _ := client.singleFlightGroup.Do(endpointSymbols, func() (interface{}, error) {
		var payload symbolsPayload
		if err := client.getJSON(ctx, endpointSymbols, url.Values{}, &payload); err != nil {
			return nil, err
		}
		if payload.Symbols == nil {
			return nil, &FetchError{Kind: ErrorKindDecode, Op: endpointSymbols, Err: errors.New("response has no symbols")}
		}

		codes := make([]string, 0, len(payload.Symbols))
		for code := range payload.Symbols {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		return codes, nil
	})
	if err != nil {
		return nil, err
	}

	codes := result.([]string)
	return append([]string(nil), codes...), nil
}

func (client *ForexClient) getJSON(ctx context.Context, endpoint string, query url.Values, target interface{}) (err error) {
	started := time.Now()
	defer func() {
		observeRequest(endpoint, time.Since(started).Seconds(), err)
	}()

	query.Set("api_key", client.apiKey)
	requestURL := client.baseURL + "/" + endpoint + "?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &FetchError{Kind: ErrorKindTransport, Op: endpoint, Err: errors.Wrap(redact(err), "create request")}
	}
	request.Header.Set("Accept", "application/json")

	client.logger.WithField("endpoint", endpoint).Debug("Requesting rate provider")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return &FetchError{Kind: ErrorKindTransport, Op: endpoint, Err: redact(err)}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, response.Body)
		return &FetchError{Kind: ErrorKindStatus, Op: endpoint, StatusCode: response.StatusCode}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return &FetchError{Kind: ErrorKindTransport, Op: endpoint, Err: errors.Wrap(err, "read response body")}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &FetchError{Kind: ErrorKindDecode, Op: endpoint, Err: errors.Wrap(err, "parse response")}
	}

	if env := envelopeOf(target); env != nil && env.Success != nil && !*env.Success {
		return &FetchError{Kind: ErrorKindDecode, Op: endpoint, Err: errors.Errorf("provider reported failure: %s", string(env.Error))}
	}
	return nil
}

// decodeRates converts each rate on its own. Numeric strings are parsed;
// any other non-number becomes NaN so only that cell is affected.
func decodeRates(raw map[string]json.RawMessage) models.RateSet {
	rates := make(models.RateSet, len(raw))
	for code, value := range raw {
		rates[code] = decodeRate(value)
	}
	return rates
}

func decodeRate(value json.RawMessage) float64 {
	var number float64
	if err := json.Unmarshal(value, &number); err == nil {
		return number
	}

	var text string
	if err := json.Unmarshal(value, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return parsed
		}
	}
	return math.NaN()
}

func envelopeOf(target interface{}) *envelope {
	switch payload := target.(type) {
	case *latestPayload:
		return &payload.envelope
	case *symbolsPayload:
		return &payload.envelope
	default:
		return nil
	}
}

// redact strips the request URL, which carries the API key, from transport errors
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return errors.Errorf("%s request failed: %v", urlErr.Op, urlErr.Err)
	}
	return err
}
