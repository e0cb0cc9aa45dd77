package expect

import (
	"fmt"
	"strings"

	"github.com/petstore-harness/petstore-contract-tests/framework/harness"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Assertion is a declarative check against a response. Check returns nil or a *Failure.
type Assertion interface {
	Check(resp *harness.Response) error
	Describe() string
}

type statusAssertion struct {
	policy StatusPolicy
}

// Status asserts that the response status satisfies the policy.
func Status(policy StatusPolicy) Assertion { return statusAssertion{policy: policy} }

func (a statusAssertion) Describe() string { return "status " + a.policy.String() }

func (a statusAssertion) Check(resp *harness.Response) error {
	if resp == nil {
		return noResponse(a)
	}
	if a.policy.Matches(resp.Status) {
		return nil
	}
	return &Failure{
		Assertion: a.Describe(),
		Expected:  a.policy.String(),
		Actual:    fmt.Sprintf("%d", resp.Status),
		Body:      string(resp.Body),
	}
}

type fieldAssertion struct {
	path     string
	expected ldvalue.Value
}

// Field asserts that the JSON body has a value at path equal to expected. Numbers compare
// by value, so an expected int matches a decoded float.
func Field(path string, expected interface{}) Assertion {
	return fieldAssertion{path: path, expected: ldvalue.CopyArbitraryValue(expected)}
}

func (a fieldAssertion) Describe() string {
	return fmt.Sprintf("field %q == %s", a.path, a.expected.JSONString())
}

func (a fieldAssertion) Check(resp *harness.Response) error {
	if resp == nil {
		return noResponse(a)
	}
	body, err := resp.JSON()
	if err != nil {
		return &Failure{Assertion: a.Describe(), Expected: a.expected.JSONString(), Actual: err.Error(), Body: string(resp.Body)}
	}
	actual, err := Lookup(body, a.path)
	if err != nil {
		return &Failure{Assertion: a.Describe(), Expected: a.expected.JSONString(), Actual: err.Error(), Body: string(resp.Body)}
	}
	if !actual.Equal(a.expected) {
		return &Failure{
			Assertion: a.Describe(),
			Expected:  a.expected.JSONString(),
			Actual:    actual.JSONString(),
			Body:      string(resp.Body),
		}
	}
	return nil
}

type nonEmptyBodyAssertion struct{}

// NonEmptyBody asserts that the body has content, and that a JSON object or array body has
// at least one element.
func NonEmptyBody() Assertion { return nonEmptyBodyAssertion{} }

func (a nonEmptyBodyAssertion) Describe() string { return "non-empty body" }

func (a nonEmptyBodyAssertion) Check(resp *harness.Response) error {
	if resp == nil {
		return noResponse(a)
	}
	if strings.TrimSpace(string(resp.Body)) == "" {
		return &Failure{Assertion: a.Describe(), Expected: "content", Actual: "empty body"}
	}
	body, err := resp.JSON()
	if err != nil {
		// non-JSON content still counts as content
		return nil
	}
	switch body.Type() {
	case ldvalue.ObjectType, ldvalue.ArrayType:
		if body.Count() == 0 {
			return &Failure{
				Assertion: a.Describe(),
				Expected:  "at least one element",
				Actual:    fmt.Sprintf("empty %s", body.Type()),
				Body:      string(resp.Body),
			}
		}
	}
	return nil
}

func noResponse(a Assertion) error {
	return &Failure{Assertion: a.Describe(), Expected: "a response", Actual: "no response was received"}
}

// AssertStatus checks a response against a status policy.
func AssertStatus(resp *harness.Response, expected StatusPolicy) error {
	return Status(expected).Check(resp)
}

// AssertField checks one JSON body field.
func AssertField(resp *harness.Response, path string, expected interface{}) error {
	return Field(path, expected).Check(resp)
}

// AssertNonEmptyBody checks that the response has a non-empty body.
func AssertNonEmptyBody(resp *harness.Response) error {
	return NonEmptyBody().Check(resp)
}
