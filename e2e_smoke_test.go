//go:build smoke

// Smoke testing against a running prospect server.
//
// These tests drive concurrent virtual users through full research
// scenarios against a deployed instance, validating correctness under
// load rather than measuring performance. Run with:
//
//	go test -tags=smoke -count=1 -run TestE2ESmoke .
//
// The target server and workload are configured through environment
// variables; defaults suit a local `prospect -store memory run`.
package prospect_test

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prospectcrm/prospect/pkg/prospecttesting"
)

// SmokeTestConfig holds configuration for smoke tests.
type SmokeTestConfig struct {
	BaseURL             string
	NumUsers            int           // concurrent virtual users
	Timeout             time.Duration // overall test timeout
	LaunchDelay         time.Duration // delay between launching users
	RequiredSuccessRate float64       // minimum scenario success rate (0-100)
}

// DefaultConfig returns the smoke test configuration from the environment.
func DefaultConfig() *SmokeTestConfig {
	return &SmokeTestConfig{
		BaseURL:             getEnvOrDefault("PROSPECT_URL", "http://localhost:8080"),
		NumUsers:            getEnvOrDefaultInt("SMOKE_NUM_USERS", 10),
		Timeout:             getEnvOrDefaultDuration("SMOKE_TIMEOUT", 5*time.Minute),
		LaunchDelay:         getEnvOrDefaultDuration("SMOKE_LAUNCH_DELAY", 10*time.Millisecond),
		RequiredSuccessRate: getEnvOrDefaultFloat("SMOKE_SUCCESS_RATE", 95.0),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// TestE2ESmoke runs concurrent virtual user scenarios against the target
// server and fails when the success rate drops below the configured floor.
func TestE2ESmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping smoke test in short mode")
	}

	config := DefaultConfig()
	require.Greater(t, config.NumUsers, 0, "NumUsers must be positive")

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	errs := make([]error, config.NumUsers)
	var wg sync.WaitGroup
	for i := 0; i < config.NumUsers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			vu := prospecttesting.NewVirtualUser(index, config.BaseURL)
			errs[index] = vu.RunScenario(ctx)
		}(i)
		time.Sleep(config.LaunchDelay)
	}
	wg.Wait()

	failures := 0
	for i, err := range errs {
		if err != nil {
			t.Logf("virtual user %d failed: %v", i, err)
			failures++
		}
	}

	successRate := 100 * float64(config.NumUsers-failures) / float64(config.NumUsers)
	t.Logf("smoke test: %d/%d scenarios succeeded (%.1f%%)", config.NumUsers-failures, config.NumUsers, successRate)
	require.GreaterOrEqual(t, successRate, config.RequiredSuccessRate)
}
