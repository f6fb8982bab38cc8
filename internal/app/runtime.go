package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv switches the binaries into test mode. Any value strconv.ParseBool
// accepts as true enables it.
const TestModeEnv = "NOCDESK_TEST_MODE"

var testMode atomic.Pointer[bool]

func readTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}

// InTestMode reports whether main should return before dialling any backing
// store. The environment is read on first use and cached.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	on := readTestMode()
	testMode.CompareAndSwap(nil, &on)
	return *testMode.Load()
}

// RefreshTestMode re-reads the environment, for tests that toggle it.
func RefreshTestMode() {
	on := readTestMode()
	testMode.Store(&on)
}
