package petstoretests

import (
	"context"

	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/ptest"
	"github.com/petstore-harness/petstore-contract-tests/framework/scenario"
)

// SuiteConfig contains the parameters for RunFunctionalSuite.
type SuiteConfig struct {
	Options Options
	// Parallelism is how many scenarios of one group may run at once.
	Parallelism int
	Test        ptest.TestConfiguration
}

// RunFunctionalSuite runs the whole catalogue against the service, one test per scenario
// named "group/scenario", so that a filter pattern selects scenarios directly. It returns
// the test results along with the verdict of every scenario that was not excluded.
func RunFunctionalSuite(
	ctx context.Context,
	sender harness.Sender,
	config SuiteConfig,
) (ptest.Results, []scenario.Verdict) {
	runner := scenario.NewRunner(sender)
	runner.Parallelism = config.Parallelism

	var scenarios []scenario.Scenario
	for _, g := range Groups {
		for _, s := range g.Scenarios(config.Options) {
			s.Name = g.Name + "/" + s.Name
			scenarios = append(scenarios, s)
		}
	}
	results := ptest.Run(config.Test, func(t *ptest.T) {
		runner.Run(ctx, t, scenarios)
	})
	return results, runner.Verdicts()
}
