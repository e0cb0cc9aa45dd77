package petstoretests

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/load"
	"github.com/petstore-harness/petstore-contract-tests/framework/threshold"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"

	"gopkg.in/yaml.v3"
)

const (
	PlanCreatePet  = "create-pet"
	PlanPlaceOrder = "place-order"
	PlanUserLogin  = "user-login"
)

func standardStages(rampTarget, peakTarget int) []load.Stage {
	return []load.Stage{
		{Duration: 20 * time.Second, Target: rampTarget},
		{Duration: time.Minute, Target: peakTarget},
		{Duration: 20 * time.Second, Target: 0},
	}
}

// CreatePetPlan creates pets with random ids and names.
func CreatePetPlan() load.Plan {
	return load.Plan{
		Name:      PlanCreatePet,
		Stages:    standardStages(10, 20),
		Pace:      load.DefaultPace,
		Threshold: threshold.MustParse("p(95)<500ms"),
		Pattern: load.Pattern{Actions: []load.Action{{
			Name: "create pet",
			Build: func(it *load.Iteration) harness.Request {
				return harness.Request{Method: "POST", Path: servicedef.PathPet, JSONBody: servicedef.Pet{
					ID:     it.Rand.Int63n(1000000),
					Name:   fmt.Sprintf("Pet_%d", it.Rand.Intn(1000)),
					Status: servicedef.PetAvailable,
				}}
			},
		}}},
	}
}

// PlaceOrderPlan places orders for random pets.
func PlaceOrderPlan() load.Plan {
	return load.Plan{
		Name:      PlanPlaceOrder,
		Stages:    standardStages(15, 30),
		Pace:      load.DefaultPace,
		Threshold: threshold.MustParse("p(95)<600ms"),
		Pattern: load.Pattern{Actions: []load.Action{{
			Name: "place order",
			Build: func(it *load.Iteration) harness.Request {
				return harness.Request{Method: "POST", Path: servicedef.PathOrder, JSONBody: servicedef.Order{
					ID:       it.Rand.Int63n(1000000),
					PetID:    it.Rand.Int63n(10000),
					Quantity: 1,
					ShipDate: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
					Status:   servicedef.OrderPlaced,
					Complete: true,
				}}
			},
		}}},
	}
}

// UserLoginPlan creates a user and then logs in as that user.
func UserLoginPlan() load.Plan {
	return load.Plan{
		Name:      PlanUserLogin,
		Stages:    standardStages(15, 30),
		Pace:      load.DefaultPace,
		Threshold: threshold.MustParse("p(95)<500ms"),
		Pattern: load.Pattern{Actions: []load.Action{
			{
				Name:  "create user",
				Check: expect.Exactly(200),
				Build: func(it *load.Iteration) harness.Request {
					username := fmt.Sprintf("loaduser_%d_%d_%d", it.VU, it.Number, it.Rand.Intn(10000))
					it.Vars["username"] = username
					return harness.Request{Method: "POST", Path: servicedef.PathUser, JSONBody: userPayload(username)}
				},
			},
			{
				Name:  "log in",
				Check: expect.Exactly(200),
				Build: func(it *load.Iteration) harness.Request {
					return harness.Request{Method: "GET", Path: servicedef.PathUserLogin,
						Query: url.Values{"username": {it.Vars["username"]}, "password": {testPassword}}}
				},
			},
		}},
	}
}

// BuiltinPlans returns a fresh copy of every built-in plan, keyed by name.
func BuiltinPlans() map[string]load.Plan {
	plans := map[string]load.Plan{}
	for _, p := range []load.Plan{CreatePetPlan(), PlaceOrderPlan(), UserLoginPlan()} {
		plans[p.Name] = p
	}
	return plans
}

// PlanNames returns the keys of plans in sorted order.
func PlanNames(plans map[string]load.Plan) []string {
	names := make([]string, 0, len(plans))
	for name := range plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlanOverride replaces parts of a built-in plan. Zero fields leave the plan unchanged.
type PlanOverride struct {
	Stages    []load.Stage    `yaml:"stages"`
	Pace      time.Duration   `yaml:"pace"`
	Threshold *threshold.Spec `yaml:"threshold"`
}

type plansFile struct {
	Plans map[string]PlanOverride `yaml:"plans"`
}

// ParsePlanOverrides reads overrides in this form:
//
//	plans:
//	  create-pet:
//	    stages:
//	      - duration: 5s
//	        target: 2
//	    pace: 500ms
//	    threshold: p(95)<800ms
func ParsePlanOverrides(data []byte) (map[string]PlanOverride, error) {
	var f plansFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid plans file: %w", err)
	}
	return f.Plans, nil
}

// ReadPlanOverrides is ParsePlanOverrides on the contents of a file.
func ReadPlanOverrides(path string) (map[string]PlanOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlanOverrides(data)
}

// ApplyPlanOverrides returns plans with overrides applied. Every overridden plan must exist,
// and every resulting plan must be valid.
func ApplyPlanOverrides(plans map[string]load.Plan, overrides map[string]PlanOverride) (map[string]load.Plan, error) {
	ret := make(map[string]load.Plan, len(plans))
	for name, p := range plans {
		ret[name] = p
	}
	for name, o := range overrides {
		p, ok := ret[name]
		if !ok {
			return nil, fmt.Errorf("plans file overrides unknown plan %q", name)
		}
		if len(o.Stages) > 0 {
			p.Stages = o.Stages
		}
		if o.Pace > 0 {
			p.Pace = o.Pace
		}
		if o.Threshold != nil {
			p.Threshold = *o.Threshold
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("plan %q: %w", name, err)
		}
		ret[name] = p
	}
	return ret, nil
}
