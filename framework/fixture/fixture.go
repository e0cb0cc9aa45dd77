// Package fixture establishes known remote state before a scenario runs and removes it
// afterward. Fixture operations converge state; they never report failure, because
// verifying the service's create and delete behavior is the job of the scenarios that
// are about those operations.
package fixture

import (
	"context"
	"net/url"
	"strings"

	"github.com/petstore-harness/petstore-contract-tests/framework"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
)

// Ref identifies one remote resource: a collection path such as "/pet" plus the key of an
// item in it, such as "1003" or a username.
type Ref struct {
	Collection string
	Key        string
}

// ItemPath is the path used to read or delete the resource.
func (r Ref) ItemPath() string {
	return strings.TrimSuffix(r.Collection, "/") + "/" + url.PathEscape(r.Key)
}

// CreatePath is the path the resource is created with.
func (r Ref) CreatePath() string {
	return r.Collection
}

func (r Ref) String() string {
	return r.ItemPath()
}

// Fixture declares the state one resource must be in. A nil Payload means the resource
// must not exist.
type Fixture struct {
	Ref     Ref
	Payload interface{}
}

// Absent declares that a resource must not exist.
func Absent(ref Ref) Fixture {
	return Fixture{Ref: ref}
}

// Present declares that a resource must exist with the given payload.
func Present(ref Ref, payload interface{}) Fixture {
	return Fixture{Ref: ref, Payload: payload}
}

// Manager applies fixtures through a harness.Sender. It keeps no state between calls.
type Manager struct {
	sender harness.Sender
	logger framework.Logger
}

func NewManager(sender harness.Sender, logger framework.Logger) *Manager {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Manager{sender: sender, logger: logger}
}

// WithLogger returns a Manager that uses the same Sender but logs elsewhere.
func (m *Manager) WithLogger(logger framework.Logger) *Manager {
	return NewManager(m.sender, logger)
}

// EnsureAbsent deletes the resource. Every outcome, including not-found statuses, server
// errors and transport errors, is treated as satisfying the postcondition.
func (m *Manager) EnsureAbsent(ctx context.Context, ref Ref) {
	resp, err := m.sender.Send(ctx, harness.Request{Method: "DELETE", Path: ref.ItemPath()})
	m.logOutcome("ensure absent", ref, resp, err)
}

// EnsureExists removes any stale copy of the resource and then creates it from payload.
// The create status is not checked and a conflict is tolerated.
func (m *Manager) EnsureExists(ctx context.Context, ref Ref, payload interface{}) {
	m.EnsureAbsent(ctx, ref)
	resp, err := m.sender.Send(ctx, harness.Request{Method: "POST", Path: ref.CreatePath(), JSONBody: payload})
	m.logOutcome("ensure exists", ref, resp, err)
}

// Apply converges each fixture in order.
func (m *Manager) Apply(ctx context.Context, fixtures ...Fixture) {
	for _, f := range fixtures {
		if f.Payload == nil {
			m.EnsureAbsent(ctx, f.Ref)
		} else {
			m.EnsureExists(ctx, f.Ref, f.Payload)
		}
	}
}

func (m *Manager) logOutcome(op string, ref Ref, resp *harness.Response, err error) {
	switch {
	case err != nil:
		m.logger.Printf("fixture %s %s: ignoring error: %s", op, ref, err)
	case resp != nil:
		m.logger.Printf("fixture %s %s: status %d", op, ref, resp.Status)
	}
}
