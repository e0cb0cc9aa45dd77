package petstoretests

import (
	"net/url"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"
)

// Each scenario owns distinct pet ids so that scenarios can run concurrently.
const (
	petIDCreate         = 1004
	petIDUpdate         = 1003
	petIDUpdateStatus   = 1005
	petIDFind           = 1006
	petIDFindByStatus   = 1007
	petIDDelete         = 1008
	petIDUpload         = 1009
	petIDNonexistent    = 9999
	petIDDeleteMissing  = 9998
	petIDUploadMissing  = 9997
	petIDUpdateNotFound = 9996
)

// PetScenarios covers the /pet resource.
func PetScenarios(opts Options) []Scenario {
	ok := status(expect.Exactly(200))

	return []Scenario{
		{
			Name:     "create pet",
			Setup:    []fixture.Fixture{fixture.Absent(petRef(petIDCreate))},
			Teardown: []fixture.Fixture{fixture.Absent(petRef(petIDCreate))},
			Steps: []Step{
				{
					Name: "create",
					Request: harness.Request{Method: "POST", Path: servicedef.PathPet,
						JSONBody: servicedef.Pet{ID: petIDCreate, Name: "Bella", Status: servicedef.PetAvailable}},
					Expect: status(expect.Created),
				},
				{
					Name:    "read back",
					Request: harness.Request{Method: "GET", Path: servicedef.PetPath(petIDCreate)},
					Expect:  append(ok, expect.Field("name", "Bella"), expect.Field("id", petIDCreate)),
				},
			},
		},
		{
			Name: "create pet with invalid field types",
			Steps: []Step{{
				Request: harness.Request{Method: "POST", Path: servicedef.PathPet,
					JSONBody: map[string]interface{}{"id": "invalid_id", "name": 12345, "status": true}},
				Expect: status(expect.AnyClientError),
			}},
		},
		{
			Name:     "update existing pet",
			Setup:    []fixture.Fixture{petExists(petIDUpdate, "Max")},
			Teardown: []fixture.Fixture{fixture.Absent(petRef(petIDUpdate))},
			Steps: []Step{
				{
					Name: "update",
					Request: harness.Request{Method: "PUT", Path: servicedef.PathPet,
						JSONBody: servicedef.Pet{ID: petIDUpdate, Name: "Max Updated", Status: servicedef.PetSold}},
					Expect: append(ok, expect.Field("name", "Max Updated")),
				},
				{
					Name:    "read back",
					Request: harness.Request{Method: "GET", Path: servicedef.PetPath(petIDUpdate)},
					Expect:  append(ok, expect.Field("status", servicedef.PetSold)),
				},
			},
		},
		{
			Name: "update pet with invalid id",
			Steps: []Step{{
				Request: harness.Request{Method: "PUT", Path: servicedef.PathPet,
					JSONBody: map[string]interface{}{"id": "invalid_id", "name": "Max"}},
				Expect: status(expect.AnyClientError),
			}},
		},
		{
			Name:  "update nonexistent pet",
			Setup: []fixture.Fixture{fixture.Absent(petRef(petIDUpdateNotFound))},
			Steps: []Step{{
				Request: harness.Request{Method: "PUT", Path: servicedef.PathPet,
					JSONBody: servicedef.Pet{ID: petIDUpdateNotFound, Name: "Ghost", Status: servicedef.PetAvailable}},
				Expect: status(expect.Exactly(404)),
			}},
		},
		{
			Name:     "update pet with invalid status",
			Setup:    []fixture.Fixture{petExists(petIDUpdateStatus, "Rex")},
			Teardown: []fixture.Fixture{fixture.Absent(petRef(petIDUpdateStatus))},
			Steps: []Step{{
				Request: harness.Request{Method: "PUT", Path: servicedef.PathPet,
					JSONBody: servicedef.Pet{ID: petIDUpdateStatus, Name: "Rex", Status: "unknown"}},
				Expect: status(expect.Exactly(405)),
			}},
		},
		{
			Name:     "find pet by id",
			Setup:    []fixture.Fixture{petExists(petIDFind, "Luna")},
			Teardown: []fixture.Fixture{fixture.Absent(petRef(petIDFind))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PetPath(petIDFind)},
				Expect:  append(ok, expect.Field("id", petIDFind), expect.Field("name", "Luna")),
			}},
		},
		{
			Name:  "find nonexistent pet",
			Setup: []fixture.Fixture{fixture.Absent(petRef(petIDNonexistent))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PetPath(petIDNonexistent)},
				Expect:  status(expect.Exactly(404)),
			}},
		},
		{
			Name: "find pet with invalid id",
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PetPath("abc")},
				Expect:  status(expect.Exactly(400)),
			}},
		},
		{
			Name:     "find pets by status",
			Setup:    []fixture.Fixture{petExists(petIDFindByStatus, "Daisy")},
			Teardown: []fixture.Fixture{fixture.Absent(petRef(petIDFindByStatus))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PathPetFindByStatus,
					Query: url.Values{"status": {servicedef.PetAvailable}}},
				Expect: append(ok, expect.NonEmptyBody()),
			}},
		},
		{
			Name: "find pets by invalid status",
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PathPetFindByStatus,
					Query: url.Values{"status": {"unknown"}}},
				Expect: status(expect.Exactly(400)),
			}},
		},
		{
			Name:  "delete pet",
			Setup: []fixture.Fixture{petExists(petIDDelete, "Buddy")},
			Steps: []Step{
				{
					Name:    "delete",
					Request: harness.Request{Method: "DELETE", Path: servicedef.PetPath(petIDDelete)},
					Expect:  ok,
				},
				{
					Name:    "confirm deleted",
					Request: harness.Request{Method: "GET", Path: servicedef.PetPath(petIDDelete)},
					Expect:  status(expect.Exactly(404)),
				},
			},
		},
		{
			Name:  "delete nonexistent pet",
			Setup: []fixture.Fixture{fixture.Absent(petRef(petIDDeleteMissing))},
			Steps: []Step{{
				Request: harness.Request{Method: "DELETE", Path: servicedef.PetPath(petIDDeleteMissing)},
				Expect:  status(opts.deleteNotFound()),
			}},
		},
		{
			Name:     "upload pet image",
			Setup:    []fixture.Fixture{petExists(petIDUpload, "Coco")},
			Teardown: []fixture.Fixture{fixture.Absent(petRef(petIDUpload))},
			Steps: []Step{{
				Request: harness.Request{Method: "POST", Path: servicedef.PetUploadImagePath(petIDUpload),
					Multipart: opts.image()},
				Expect: status(expect.OneOf(DefaultUploadExistingStatuses...)),
			}},
		},
		{
			Name:  "upload image for nonexistent pet",
			Setup: []fixture.Fixture{fixture.Absent(petRef(petIDUploadMissing))},
			Steps: []Step{{
				Request: harness.Request{Method: "POST", Path: servicedef.PetUploadImagePath(petIDUploadMissing),
					Multipart: opts.image()},
				Expect: status(opts.uploadMissing()),
			}},
		},
	}
}
