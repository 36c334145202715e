package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// LoadTestConfig holds configuration for load testing
type LoadTestConfig struct {
	BaseURL         string
	ConcurrentUsers int
	RoundsPerUser   int
	Timeout         time.Duration
	TestDuration    time.Duration
	RampUpDuration  time.Duration
	ThinkTime       time.Duration
}

// Step is one request of the per-user scenario
type Step struct {
	Name   string
	Method string
	Path   string
	Form   url.Values
}

// LoadTestResult holds the result of a single request
type LoadTestResult struct {
	UserID     int
	Step       string
	StatusCode int
	Duration   time.Duration
	Success    bool
	Error      error
	Timestamp  time.Time
}

// LoadTestSummary holds the summary of load test results
type LoadTestSummary struct {
	TotalRequests       int
	SuccessfulRequests  int
	FailedRequests      int
	TotalDuration       time.Duration
	AverageResponseTime time.Duration
	MinResponseTime     time.Duration
	MaxResponseTime     time.Duration
	RequestsPerSecond   float64
	ErrorRate           float64
	ResponseTime95th    time.Duration
	ResponseTime99th    time.Duration
	FailuresByStep      map[string]int
}

// scenario walks the table the way a browser user does
var scenario = []Step{
	{Name: "view", Method: http.MethodGet, Path: "/api/v1/view"},
	{Name: "sort-rate", Method: http.MethodPost, Path: "/sort", Form: url.Values{"sort": {"rate"}}},
	{Name: "page", Method: http.MethodPost, Path: "/page", Form: url.Values{"page": {"2"}}},
	{Name: "sort-name", Method: http.MethodPost, Path: "/sort", Form: url.Values{"sort": {"name"}}},
	{Name: "index", Method: http.MethodGet, Path: "/"},
}

func main() {
	var config LoadTestConfig

	flag.StringVar(&config.BaseURL, "url", "http://localhost:8081", "Base URL of the forex rates server")
	flag.IntVar(&config.ConcurrentUsers, "users", 10, "Number of concurrent users")
	flag.IntVar(&config.RoundsPerUser, "rounds", 20, "Scenario rounds per user")
	flag.DurationVar(&config.Timeout, "timeout", 30*time.Second, "Request timeout")
	flag.DurationVar(&config.TestDuration, "duration", 0, "Test duration (0 = run until all rounds complete)")
	flag.DurationVar(&config.RampUpDuration, "rampup", 5*time.Second, "Ramp-up duration")
	flag.DurationVar(&config.ThinkTime, "think", 100*time.Millisecond, "Think time between requests")
	flag.Parse()

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	fmt.Printf("Starting load test...\n")
	fmt.Printf("Base URL: %s\n", config.BaseURL)
	fmt.Printf("Concurrent Users: %d\n", config.ConcurrentUsers)
	fmt.Printf("Rounds per User: %d (%d requests each)\n", config.RoundsPerUser, len(scenario))
	fmt.Printf("Timeout: %v\n", config.Timeout)
	fmt.Printf("Ramp-up Duration: %v\n", config.RampUpDuration)
	fmt.Printf("Think Time: %v\n", config.ThinkTime)
	fmt.Printf("Test Duration: %v\n", config.TestDuration)
	fmt.Println()

	summary := runLoadTest(config)
	printSummary(summary)
}

func runLoadTest(config LoadTestConfig) LoadTestSummary {
	results := make(chan LoadTestResult, config.ConcurrentUsers*config.RoundsPerUser*len(scenario))

	ctx := context.Background()
	if config.TestDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.TestDuration)
		defer cancel()
	}

	startTime := time.Now()

	group, groupCtx := errgroup.WithContext(ctx)
	rampUpDelay := time.Duration(0)
	if config.ConcurrentUsers > 0 {
		rampUpDelay = config.RampUpDuration / time.Duration(config.ConcurrentUsers)
	}

	for userID := 0; userID < config.ConcurrentUsers; userID++ {
		uid := userID
		group.Go(func() error {
			client, err := newUserClient(config.Timeout)
			if err != nil {
				return err
			}

			if !sleep(groupCtx, time.Duration(uid)*rampUpDelay) {
				return nil
			}

			for round := 0; round < config.RoundsPerUser; round++ {
				for _, step := range scenario {
					if groupCtx.Err() != nil {
						return nil
					}
					results <- makeRequest(groupCtx, client, config.BaseURL, uid, step)
					if !sleep(groupCtx, config.ThinkTime) {
						return nil
					}
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		fmt.Printf("Load test aborted: %v\n", err)
	}
	close(results)

	return processResults(results, time.Since(startTime))
}

// newUserClient keeps cookies so every simulated user maps to one server-side view.
// Redirects are not followed; the 303 after a form post is the success signal.
func newUserClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &http.Client{
		Timeout: timeout,
		Jar:     jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func makeRequest(ctx context.Context, client *http.Client, baseURL string, userID int, step Step) LoadTestResult {
	start := time.Now()
	result := LoadTestResult{
		UserID:    userID,
		Step:      step.Name,
		Timestamp: start,
	}

	request, err := buildRequest(ctx, baseURL, step)
	if err != nil {
		result.Error = err
		return result
	}

	resp, err := client.Do(request)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 400
	return result
}

func buildRequest(ctx context.Context, baseURL string, step Step) (*http.Request, error) {
	if step.Form == nil {
		return http.NewRequestWithContext(ctx, step.Method, baseURL+step.Path, nil)
	}

	request, err := http.NewRequestWithContext(ctx, step.Method, baseURL+step.Path, strings.NewReader(step.Form.Encode()))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return request, nil
}

func processResults(results <-chan LoadTestResult, totalDuration time.Duration) LoadTestSummary {
	summary := LoadTestSummary{
		TotalDuration:  totalDuration,
		FailuresByStep: make(map[string]int),
	}
	var responseTimes []time.Duration

	for result := range results {
		summary.TotalRequests++
		responseTimes = append(responseTimes, result.Duration)

		if result.Success {
			summary.SuccessfulRequests++
		} else {
			summary.FailedRequests++
			summary.FailuresByStep[result.Step]++
		}
	}

	if summary.TotalRequests == 0 {
		return summary
	}

	summary.ErrorRate = float64(summary.FailedRequests) / float64(summary.TotalRequests) * 100
	if totalDuration > 0 {
		summary.RequestsPerSecond = float64(summary.TotalRequests) / totalDuration.Seconds()
	}

	sort.Slice(responseTimes, func(i, j int) bool { return responseTimes[i] < responseTimes[j] })

	var totalResponseTime time.Duration
	for _, rt := range responseTimes {
		totalResponseTime += rt
	}
	summary.MinResponseTime = responseTimes[0]
	summary.MaxResponseTime = responseTimes[len(responseTimes)-1]
	summary.AverageResponseTime = totalResponseTime / time.Duration(len(responseTimes))
	summary.ResponseTime95th = calculatePercentile(responseTimes, 95)
	summary.ResponseTime99th = calculatePercentile(responseTimes, 99)

	return summary
}

// calculatePercentile expects times sorted ascending
func calculatePercentile(times []time.Duration, percentile int) time.Duration {
	if len(times) == 0 {
		return 0
	}

	index := int(float64(len(times)) * float64(percentile) / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

func printSummary(summary LoadTestSummary) {
	fmt.Println("=== Load Test Results ===")
	if summary.TotalRequests == 0 {
		fmt.Println("No requests were made")
		return
	}

	fmt.Printf("Total Requests: %d\n", summary.TotalRequests)
	fmt.Printf("Successful Requests: %d (%.2f%%)\n", summary.SuccessfulRequests,
		float64(summary.SuccessfulRequests)/float64(summary.TotalRequests)*100)
	fmt.Printf("Failed Requests: %d (%.2f%%)\n", summary.FailedRequests, summary.ErrorRate)
	for step, failures := range summary.FailuresByStep {
		fmt.Printf("  %s: %d failed\n", step, failures)
	}
	fmt.Printf("Total Duration: %v\n", summary.TotalDuration)
	fmt.Printf("Requests per Second: %.2f\n", summary.RequestsPerSecond)
	fmt.Printf("Average Response Time: %v\n", summary.AverageResponseTime)
	fmt.Printf("Min Response Time: %v\n", summary.MinResponseTime)
	fmt.Printf("Max Response Time: %v\n", summary.MaxResponseTime)
	fmt.Printf("95th Percentile Response Time: %v\n", summary.ResponseTime95th)
	fmt.Printf("99th Percentile Response Time: %v\n", summary.ResponseTime99th)

	fmt.Println("\n=== Performance Assessment ===")
	if summary.ErrorRate > 5.0 {
		fmt.Printf("High error rate: %.2f%% (target: < 5%%)\n", summary.ErrorRate)
	} else {
		fmt.Printf("Error rate: %.2f%% (good)\n", summary.ErrorRate)
	}

	if summary.AverageResponseTime > 2*time.Second {
		fmt.Printf("High average response time: %v (target: < 2s)\n", summary.AverageResponseTime)
	} else {
		fmt.Printf("Average response time: %v (good)\n", summary.AverageResponseTime)
	}

	if summary.RequestsPerSecond < 10 {
		fmt.Printf("Low throughput: %.2f req/s (target: > 10 req/s)\n", summary.RequestsPerSecond)
	} else {
		fmt.Printf("Throughput: %.2f req/s (good)\n", summary.RequestsPerSecond)
	}
}
