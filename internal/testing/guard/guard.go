// Package guard is blank-imported by the tests of cmd/ packages so that calling
// main returns immediately instead of connecting to PostgreSQL and Redis.
package guard

import "os"

// Env mirrors app.TestModeEnv. It is duplicated to keep this package free of
// imports from the module.
const Env = "NOCDESK_TEST_MODE"

func init() {
	if _, ok := os.LookupEnv(Env); !ok {
		_ = os.Setenv(Env, "1")
	}
}
