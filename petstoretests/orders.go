package petstoretests

import (
	"fmt"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"
)

const (
	orderIDGet           = 10
	orderIDDelete        = 11
	orderIDPlace         = 12
	orderIDNonexistent   = 9999
	orderIDDeleteMissing = 999
	orderIDOutOfRange    = 1001
)

// orderIDsOutsideValidRange are ids the service documents as invalid for lookups, though
// some deployments report them as merely not found.
var orderIDsOutsideValidRange = []int64{6, 7, 8, 9}

// OrderScenarios covers the /store resources.
func OrderScenarios(opts Options) []Scenario {
	ok := status(expect.Exactly(200))

	outOfRange := Scenario{Name: "find order with id outside valid range"}
	for _, id := range orderIDsOutsideValidRange {
		outOfRange.Setup = append(outOfRange.Setup, fixture.Absent(orderRef(id)))
		outOfRange.Steps = append(outOfRange.Steps, Step{
			Name:    fmt.Sprintf("order %d", id),
			Request: harness.Request{Method: "GET", Path: servicedef.OrderPath(id)},
			Expect:  status(expect.OneOf(400, 404)),
		})
	}

	return []Scenario{
		{
			Name: "get inventory",
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.PathInventory},
				Expect:  append(ok, expect.NonEmptyBody()),
			}},
		},
		{
			Name:     "place order",
			Setup:    []fixture.Fixture{fixture.Absent(orderRef(orderIDPlace))},
			Teardown: []fixture.Fixture{fixture.Absent(orderRef(orderIDPlace))},
			Steps: []Step{
				{
					Name: "place",
					Request: harness.Request{Method: "POST", Path: servicedef.PathOrder,
						JSONBody: servicedef.Order{
							ID:       orderIDPlace,
							PetID:    198772,
							Quantity: 7,
							ShipDate: "2024-10-10T12:00:00.000Z",
							Status:   servicedef.OrderApproved,
							Complete: true,
						}},
					Expect: status(expect.Created),
				},
				{
					Name:    "read back",
					Request: harness.Request{Method: "GET", Path: servicedef.OrderPath(orderIDPlace)},
					Expect:  append(ok, expect.Field("id", orderIDPlace), expect.Field("quantity", 7)),
				},
			},
		},
		{
			Name: "place order with invalid format",
			Steps: []Step{{
				Request: harness.Request{Method: "POST", Path: servicedef.PathOrder,
					JSONBody: map[string]interface{}{
						"id":       "invalid_id",
						"petId":    "invalid_pet_id",
						"quantity": -1,
						"shipDate": "invalid_date",
						"status":   "unknown_status",
						"complete": "not_boolean",
					}},
				Expect: status(expect.Exactly(400)),
			}},
		},
		{
			Name:     "find order by id",
			Setup:    []fixture.Fixture{orderExists(orderIDGet)},
			Teardown: []fixture.Fixture{fixture.Absent(orderRef(orderIDGet))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.OrderPath(orderIDGet)},
				Expect:  append(ok, expect.Field("id", orderIDGet)),
			}},
		},
		{
			Name:  "find nonexistent order",
			Setup: []fixture.Fixture{fixture.Absent(orderRef(orderIDNonexistent))},
			Steps: []Step{{
				Request: harness.Request{Method: "GET", Path: servicedef.OrderPath(orderIDNonexistent)},
				Expect:  status(expect.Exactly(404)),
			}},
		},
		outOfRange,
		{
			Name:  "delete order",
			Setup: []fixture.Fixture{orderExists(orderIDDelete)},
			Steps: []Step{
				{
					Name:    "delete",
					Request: harness.Request{Method: "DELETE", Path: servicedef.OrderPath(orderIDDelete)},
					Expect:  ok,
				},
				{
					Name:    "confirm deleted",
					Request: harness.Request{Method: "GET", Path: servicedef.OrderPath(orderIDDelete)},
					Expect:  status(expect.Exactly(404)),
				},
			},
		},
		{
			Name: "delete order with id out of range",
			Steps: []Step{{
				Request: harness.Request{Method: "DELETE", Path: servicedef.OrderPath(orderIDOutOfRange)},
				Expect:  status(expect.Exactly(400)),
			}},
		},
		{
			Name:  "delete nonexistent order",
			Setup: []fixture.Fixture{fixture.Absent(orderRef(orderIDDeleteMissing))},
			Steps: []Step{{
				Request: harness.Request{Method: "DELETE", Path: servicedef.OrderPath(orderIDDeleteMissing)},
				Expect:  status(opts.deleteNotFound()),
			}},
		},
	}
}
