package petstoretests

import (
	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/scenario"
)

type (
	Scenario = scenario.Scenario
	Step     = scenario.Step
)

// status starts an assertion list with a status check. The slice is full, so appending to
// it always copies.
func status(policy expect.StatusPolicy) []expect.Assertion {
	return []expect.Assertion{expect.Status(policy)}
}

// Group is one resource's share of the catalogue.
type Group struct {
	Name      string
	Scenarios func(Options) []Scenario
}

// Groups is the whole functional catalogue in the order it is run.
var Groups = []Group{
	{Name: "pets", Scenarios: PetScenarios},
	{Name: "orders", Scenarios: OrderScenarios},
	{Name: "users", Scenarios: UserScenarios},
}

// AllScenarios returns every scenario in the catalogue, in run order.
func AllScenarios(opts Options) []Scenario {
	var ret []Scenario
	for _, g := range Groups {
		ret = append(ret, g.Scenarios(opts)...)
	}
	return ret
}
