package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/ptest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal in-memory user store behind a harness.Sender.
type fakeStore struct {
	lock     sync.Mutex
	users    map[string]map[string]interface{}
	requests []string
	down     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]map[string]interface{})}
}

func (f *fakeStore) Send(ctx context.Context, req harness.Request) (*harness.Response, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.requests = append(f.requests, req.Method+" "+req.Path)
	if f.down {
		return nil, &harness.TransportError{Method: req.Method, URL: req.Path, Err: errors.New("connection refused")}
	}
	jsonResponse := func(status int, body interface{}) (*harness.Response, error) {
		data, _ := json.Marshal(body)
		return &harness.Response{Status: status, Body: data}, nil
	}
	switch {
	case req.Method == "POST" && req.Path == "/user":
		data, _ := json.Marshal(req.JSONBody)
		var user map[string]interface{}
		_ = json.Unmarshal(data, &user)
		f.users[user["username"].(string)] = user
		return jsonResponse(200, user)
	case req.Method == "GET" && req.Path == "/user/login":
		if _, ok := f.users[req.Query.Get("username")]; !ok {
			return jsonResponse(400, map[string]string{"message": "Invalid username/password supplied"})
		}
		return jsonResponse(200, map[string]string{"message": "logged in user session:1"})
	case strings.HasPrefix(req.Path, "/user/"):
		name := strings.TrimPrefix(req.Path, "/user/")
		user, ok := f.users[name]
		if !ok {
			return jsonResponse(404, map[string]string{"message": "User not found"})
		}
		if req.Method == "DELETE" {
			delete(f.users, name)
			return &harness.Response{Status: 200}, nil
		}
		return jsonResponse(200, user)
	}
	return &harness.Response{Status: 404}, nil
}

func loginScenario() Scenario {
	return Scenario{
		Name: "create and login",
		Vars: func() Vars { return Vars{"username": "user-abc"} },
		Teardown: []fixture.Fixture{
			fixture.Absent(fixture.Ref{Collection: "/user", Key: "${username}"}),
		},
		Steps: []Step{
			{
				Name: "create",
				Request: harness.Request{Method: "POST", Path: "/user", JSONBody: map[string]interface{}{
					"id": 1, "username": "${username}", "password": "pw",
				}},
				Expect:  []expect.Assertion{expect.Status(expect.Created)},
				Extract: map[string]string{"createdName": "username"},
			},
			{
				Name: "login",
				Request: harness.Request{Method: "GET", Path: "/user/login",
					Query: url.Values{"username": {"${createdName}"}, "password": {"pw"}}},
				Expect: []expect.Assertion{expect.Status(expect.Exactly(200)), expect.NonEmptyBody()},
			},
		},
	}
}

func TestExecutePassingScenarioWithExtraction(t *testing.T) {
	store := newFakeStore()
	v := NewRunner(store).Execute(context.Background(), loginScenario(), nil)

	assert.Equal(t, Passed, v.Outcome)
	assert.Nil(t, v.Failure)
	assert.NoError(t, v.Err)
	assert.Equal(t, []Check{
		{Step: "create", Assertion: "status one of {200, 201}"},
		{Step: "login", Assertion: "status 200"},
		{Step: "login", Assertion: "non-empty body"},
	}, v.Passed)
	assert.Equal(t, []string{"POST /user", "GET /user/login", "DELETE /user/user-abc"}, store.requests)
	assert.Empty(t, store.users, "teardown removed the created user")
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	store := newFakeStore()
	s := Scenario{
		Name:  "get missing",
		Setup: []fixture.Fixture{fixture.Absent(fixture.Ref{Collection: "/user", Key: "ghost"})},
		Steps: []Step{
			{
				Request: harness.Request{Method: "GET", Path: "/user/ghost"},
				Expect: []expect.Assertion{
					expect.Status(expect.AnyClientError),
					expect.Field("username", "ghost"),
					expect.NonEmptyBody(),
				},
			},
			{Request: harness.Request{Method: "GET", Path: "/user/never"}},
		},
	}
	v := NewRunner(store).Execute(context.Background(), s, nil)

	assert.Equal(t, Failed, v.Outcome)
	assert.Equal(t, "GET /user/ghost", v.FailedStep)
	require.NotNil(t, v.Failure)
	assert.Contains(t, v.Failure.Assertion, "username")
	assert.Contains(t, v.Failure.Body, "User not found")
	assert.Len(t, v.Passed, 1)
	assert.Equal(t, []string{"DELETE /user/ghost", "GET /user/ghost"}, store.requests)
}

func TestExecuteTransportErrorAbortsScenarioButRunsTeardown(t *testing.T) {
	store := newFakeStore()
	store.down = true
	v := NewRunner(store).Execute(context.Background(), loginScenario(), nil)

	assert.Equal(t, Errored, v.Outcome)
	assert.Equal(t, "create", v.FailedStep)
	assert.True(t, harness.IsTransportError(v.Err))
	assert.Equal(t, []string{"POST /user", "DELETE /user/user-abc"}, store.requests,
		"fixture teardown still runs and its transport error is ignored")
}

func TestExecuteUndefinedVariableErrors(t *testing.T) {
	s := Scenario{Name: "bad", Steps: []Step{{Request: harness.Request{Method: "GET", Path: "/user/${nobody}"}}}}
	store := newFakeStore()
	v := NewRunner(store).Execute(context.Background(), s, nil)
	assert.Equal(t, Errored, v.Outcome)
	assert.Contains(t, v.Err.Error(), "nobody")
	assert.Empty(t, store.requests)
}

func TestExecuteFailedExtraction(t *testing.T) {
	s := Scenario{Name: "extract", Steps: []Step{{
		Request: harness.Request{Method: "GET", Path: "/user/login", Query: url.Values{"username": {"x"}}},
		Extract: map[string]string{"session": "session.id"},
	}}}
	v := NewRunner(newFakeStore()).Execute(context.Background(), s, nil)
	assert.Equal(t, Failed, v.Outcome)
	require.NotNil(t, v.Failure)
	assert.Equal(t, "extract variables", v.Failure.Assertion)
}

func TestRunRecordsVerdictsAndIsolatesFailures(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		store := newFakeStore()
		runner := NewRunner(store)
		runner.Parallelism = parallelism
		failing := Scenario{Name: "failing", Steps: []Step{{
			Request: harness.Request{Method: "GET", Path: "/user/ghost"},
			Expect:  []expect.Assertion{expect.Status(expect.Exactly(200))},
		}}}
		skipped := Scenario{Name: "skipped", Skip: "not applicable"}

		results := ptest.Run(ptest.TestConfiguration{}, func(t *ptest.T) {
			t.Run("users", func(t *ptest.T) {
				runner.Run(context.Background(), t, []Scenario{failing, loginScenario(), skipped})
			})
		})

		require.Len(t, results.Failures, 1, "parallelism %d", parallelism)
		assert.Equal(t, "users/failing", results.Failures[0].TestID.String())

		outcomes := make(map[string]Outcome)
		for _, v := range runner.Verdicts() {
			outcomes[v.Scenario] = v.Outcome
		}
		assert.Equal(t, map[string]Outcome{
			"users/failing":          Failed,
			"users/create and login": Passed,
			"users/skipped":          Skipped,
		}, outcomes)
	}
}

func TestExpandRequest(t *testing.T) {
	vars := Vars{"id": "1004", "name": "Bella"}
	type pet struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	req, err := vars.ExpandRequest(harness.Request{
		Method:   "PUT",
		Path:     "/pet/${id}",
		Headers:  map[string]string{"X-Name": "${name}"},
		Query:    url.Values{"q": {"${name}-${id}"}},
		JSONBody: []interface{}{pet{ID: 1004, Name: "${name}"}},
		RawBody:  []byte("name=${name}"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/pet/1004", req.Path)
	assert.Equal(t, "Bella", req.Headers["X-Name"])
	assert.Equal(t, "Bella-1004", req.Query.Get("q"))
	assert.Equal(t, "name=Bella", string(req.RawBody))
	data, err := json.Marshal(req.JSONBody)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1004,"name":"Bella"}]`, string(data))

	unchanged := map[string]interface{}{"id": 1}
	req, err = vars.ExpandRequest(harness.Request{JSONBody: unchanged})
	require.NoError(t, err)
	assert.Equal(t, unchanged, req.JSONBody)
}

func TestExtract(t *testing.T) {
	body := []byte(`{"id":9223372036854,"name":"Bella","tags":[{"name":"t1"}],"ok":true}`)
	vars, err := Extract(body, map[string]string{
		"id": "id", "name": "name", "tag": "tags[0].name", "ok": "ok", "tags": "tags",
	})
	require.NoError(t, err)
	assert.Equal(t, Vars{
		"id": "9223372036854", "name": "Bella", "tag": "t1", "ok": "true", "tags": `[{"name":"t1"}]`,
	}, vars)

	_, err = Extract(body, map[string]string{"x": "missing"})
	assert.Error(t, err)
	_, err = Extract([]byte("not json"), map[string]string{"x": "a"})
	assert.Error(t, err)
	vars, err = Extract(body, nil)
	assert.NoError(t, err)
	assert.Nil(t, vars)
}
