package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const testModeEnv = "JEWELPOS_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode enables test mode when JEWELPOS_TEST_MODE parses as true or,
// with the flag unset, when APP_ENV is "test".
func detectTestMode() {
	if raw, ok := os.LookupEnv(testModeEnv); ok && raw != "" {
		on, err := strconv.ParseBool(raw)
		testModeFlag.Store(err == nil && on)
		return
	}
	testModeFlag.Store(strings.EqualFold(os.Getenv("APP_ENV"), "test"))
}

// InTestMode reports whether the binaries should skip connecting to Postgres and Redis.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
