package petstoretests

import (
	"net/url"
	"strings"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/scenario"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"

	"github.com/google/uuid"
)

const (
	usernameGet         = "petstore_get_user"
	usernameUpdate      = "petstore_update_user"
	usernameDelete      = "petstore_delete_user"
	usernameBadLogin    = "petstore_nonexistent_login"
	usernameNonexistent = "nonexistentuser"
	usernameInvalid     = "invalid!username"
	testPassword        = "password123"
)

// GenerateUsername returns a username that no other run is using.
func GenerateUsername(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func generatedUser() scenario.Vars {
	return scenario.Vars{"username": GenerateUsername("user_")}
}

func userPayload(username string) map[string]interface{} {
	return map[string]interface{}{
		"id":        1,
		"username":  username,
		"firstName": "John",
		"lastName":  "Doe",
		"email":     "johndoe@example.com",
		"password":  testPassword,
		"phone":     "123456789",
	}
}

// UserScenarios covers the /user resources.
func UserScenarios(opts Options) []Scenario {
	ok := status(expect.Exactly(200))
	generatedRef := userRef("${username}")

	return []Scenario{
		{
			Name:     "create user",
			Vars:     generatedUser,
			Teardown: []fixture.Fixture{fixture.Absent(generatedRef)},
			Steps: []Step{{
				Request: harness.Request{Method: "POST", Path: servicedef.PathUser, JSONBody: userPayload("${username}")},
				Expect:  status(expect.Created),
			}},
		},
		{
			Name:     "create user and log in",
			Vars:     generatedUser,
			Teardown: []fixture.Fixture{fixture.Absent(generatedRef)},
			Steps: []Step{
				{
					Name:    "create",
					Request: harness.Request{Method: "POST", Path: servicedef.PathUser, JSONBody: userPayload("${username}")},
					Expect:  status(expect.Created),
					Extract: map[string]string{"createdUsername": "username"},
				},
				{
					Name: "log in",
					Request: harness.Request{Method: "GET", Path: servicedef.PathUserLogin,
						Query: url.Values{"username": {"${createdUsername}"}, "password": {testPassword}}},
					Expect: append(ok, expect.NonEmptyBody()),
				},
				{
					Name:    "log out",
					Request: harness.Request{Method: "GET", Path: servicedef.PathUserLogout},
					Expect:  ok,
				},
			},
		},
		{
			Name:  "log in with invalid credentials",
			Setup: []fixture.Fixture{fixture.Absent(userRef(usernameBadLogin))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PathUserLogin,
					Query: url.Values{"username": {usernameBadLogin}, "password": {"wrongpassword"}}},
				Expect: status(expect.Exactly(400)),
			}},
		},
		{
			Name: "log out",
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PathUserLogout},
				Expect:  ok,
			}},
		},
		{
			Name:     "get user by username",
			Setup:    []fixture.Fixture{userExists(usernameGet)},
			Teardown: []fixture.Fixture{fixture.Absent(userRef(usernameGet))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.UserPath(usernameGet)},
				Expect:  append(ok, expect.Field("username", usernameGet)),
			}},
		},
		{
			Name: "get user with invalid username",
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PathUser + "/" + usernameInvalid},
				Expect:  status(expect.Exactly(400)),
			}},
		},
		{
			Name:  "get nonexistent user",
			Setup: []fixture.Fixture{fixture.Absent(userRef(usernameNonexistent))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.UserPath(usernameNonexistent)},
				Expect:  status(expect.Exactly(404)),
			}},
		},
		{
			Name:     "update user",
			Setup:    []fixture.Fixture{userExists(usernameUpdate)},
			Teardown: []fixture.Fixture{fixture.Absent(userRef(usernameUpdate))},
			Steps: []Step{
				{
					Name: "update",
					Request: harness.Request{Method: "PUT", Path: servicedef.UserPath(usernameUpdate),
						JSONBody: servicedef.User{
							ID:        1,
							Username:  usernameUpdate,
							FirstName: "Johnny",
							LastName:  "Doe",
							Email:     "johnny.doe@example.com",
							Password:  testPassword,
							Phone:     "987654321",
						}},
					Expect: ok,
				},
				{
					Name:    "read back",
					Request: harness.Request{Method: "GET", Path: servicedef.UserPath(usernameUpdate)},
					Expect:  append(ok, expect.Field("firstName", "Johnny")),
				},
			},
		},
		{
			Name:  "delete user",
			Setup: []fixture.Fixture{userExists(usernameDelete)},
			Steps: []Step{
				{
					Name:    "delete",
					Request: harness.Request{Method: "DELETE", Path: servicedef.UserPath(usernameDelete)},
					Expect:  ok,
				},
				{
					Name:    "confirm deleted",
					Request: harness.Request{Method: "GET", Path: servicedef.UserPath(usernameDelete)},
					Expect:  status(expect.Exactly(404)),
				},
			},
		},
		{
			Name:  "delete nonexistent user",
			Setup: []fixture.Fixture{fixture.Absent(userRef(usernameNonexistent))},
			Steps: []Step{{
				Request: harness.Request{Method: "DELETE", Path: servicedef.UserPath(usernameNonexistent)},
				Expect:  status(opts.deleteNotFound()),
			}},
		},
	}
}
