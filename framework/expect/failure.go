package expect

import (
	"fmt"
	"strings"
)

// Failure is returned by any assertion whose expectation was not met. It carries enough
// context to diagnose the mismatch without re-running the request.
type Failure struct {
	// Assertion describes the check, e.g. `status 200` or `field "name" == "Bella"`.
	Assertion string
	Expected  string
	Actual    string
	// Body is the raw response body, included for body-level assertions.
	Body string
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "assertion failed: %s\n  expected: %s\n  actual:   %s", f.Assertion, f.Expected, f.Actual)
	if f.Body != "" {
		fmt.Fprintf(&b, "\n  body:     %s", f.Body)
	}
	return b.String()
}
