package figmadl

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

func zapNopLogger() *zap.Logger {
	return zap.NewNop()
}

func boolPtr(b bool) *bool {
	return &b
}

// fastTestConfig returns a client configuration with millisecond-scale
// pacing so governance behavior stays observable without slowing the suite.
func fastTestConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		RateLimit: RateLimitConfig{
			MaxRequests:  100,
			Window:       time.Second,
			SafetyMargin: time.Millisecond,
		},
		Retry: RetryConfig{
			MaxRetries:        5,
			InitialDelay:      10 * time.Millisecond,
			MaxJitter:         time.Millisecond,
			ThrottleDelayStep: 10 * time.Millisecond,
			MaxThrottleDelay:  30 * time.Millisecond,
		},
		Queue: QueueConfig{
			Concurrency: 2,
			Interval:    5 * time.Millisecond,
		},
		Batch: BatchConfig{
			Size:     5,
			Cooldown: 5 * time.Millisecond,
		},
		MetricsEnabled: boolPtr(false),
	}
}

// imagesBody renders the Figma /v1/images JSON shape. A nil URL entry is
// encoded as an explicit null, matching unexportable nodes.
func imagesBody(err string, urls map[string]*string) string {
	var b strings.Builder
	b.WriteString("{")
	if err != "" {
		fmt.Fprintf(&b, "%q:%q,", "err", err)
	} else {
		b.WriteString(`"err":null,`)
	}
	b.WriteString(`"images":{`)
	first := true
	for id, u := range urls {
		if !first {
			b.WriteString(",")
		}
		first = false
		if u == nil {
			fmt.Fprintf(&b, "%q:null", id)
		} else {
			fmt.Fprintf(&b, "%q:%q", id, *u)
		}
	}
	b.WriteString("}}")
	return b.String()
}

func strPtr(s string) *string {
	return &s
}
