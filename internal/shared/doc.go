// Package shared holds helpers used across packages that belong to no
// single layer. The testutil subpackage captures slog output so tests can
// assert on log records.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    // run code under test with logger
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "expected message")
//	}
package shared
