package expect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StatusPolicy decides whether an HTTP status code is acceptable.
//
// There are three policies. Exactly is for behavior the service documents unambiguously.
// OneOf is for edge cases where the service's documented behavior is itself ambiguous, for
// instance deleting a resource that does not exist. Between is for "any 4xx" checks on
// malformed input.
type StatusPolicy interface {
	Matches(status int) bool
	String() string
}

type exactStatus int

// Exactly accepts only the given code.
func Exactly(code int) StatusPolicy { return exactStatus(code) }

func (e exactStatus) Matches(status int) bool { return status == int(e) }

func (e exactStatus) String() string { return strconv.Itoa(int(e)) }

type statusSet []int

// OneOf accepts any of the given codes.
func OneOf(codes ...int) StatusPolicy {
	s := append(statusSet(nil), codes...)
	return s
}

func (s statusSet) Matches(status int) bool {
	for _, c := range s {
		if c == status {
			return true
		}
	}
	return false
}

func (s statusSet) String() string {
	sorted := append([]int(nil), s...)
	sort.Ints(sorted)
	ss := make([]string, 0, len(sorted))
	for _, c := range sorted {
		ss = append(ss, strconv.Itoa(c))
	}
	return "one of {" + strings.Join(ss, ", ") + "}"
}

type statusRange struct {
	low, high int
}

// Between accepts any code from low to high inclusive.
func Between(low, high int) StatusPolicy {
	if low > high {
		low, high = high, low
	}
	return statusRange{low: low, high: high}
}

func (r statusRange) Matches(status int) bool { return status >= r.low && status <= r.high }

func (r statusRange) String() string { return fmt.Sprintf("in [%d, %d]", r.low, r.high) }

var (
	// AnyClientError is the policy for malformed or type-mismatched payloads.
	AnyClientError = Between(400, 499)
	// Created is the policy for a successful create, which services report as either
	// 200 or 201.
	Created = OneOf(200, 201)
)
