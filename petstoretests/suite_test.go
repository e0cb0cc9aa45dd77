package petstoretests

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/ptest"
	"github.com/petstore-harness/petstore-contract-tests/framework/scenario"
	"github.com/petstore-harness/petstore-contract-tests/mockstore"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMockService(t *testing.T, action func(*harness.Client)) {
	gin.SetMode(gin.TestMode)
	server := httptest.NewServer(mockstore.NewServer(mockstore.NewStore(), mockstore.Config{}).Handler())
	defer server.Close()
	action(harness.NewClient(harness.ClientConfig{BaseURL: server.URL}))
}

func failedTests(results ptest.Results) []string {
	var ret []string
	for _, f := range results.Failures {
		ret = append(ret, f.TestID.String())
	}
	return ret
}

func TestCatalogueScenarioNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range Groups {
		for _, s := range g.Scenarios(Options{}) {
			key := g.Name + "/" + s.Name
			assert.False(t, seen[key], "duplicate scenario %s", key)
			seen[key] = true
			assert.NotEmpty(t, s.Steps, key)
		}
	}
}

func TestCataloguePassesAgainstMockService(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		withMockService(t, func(client *harness.Client) {
			results, verdicts := RunFunctionalSuite(context.Background(), client, SuiteConfig{Parallelism: parallelism})

			assert.True(t, results.OK(), "failures: %v", failedTests(results))
			assert.Len(t, verdicts, len(AllScenarios(Options{})))
			for _, v := range verdicts {
				assert.Equal(t, scenario.Passed, v.Outcome, v.Scenario)
			}
		})
	}
}

func TestCatalogueDetectsWrongStatus(t *testing.T) {
	withMockService(t, func(client *harness.Client) {
		// report every missing pet as found
		broken := harness.SenderFunc(func(ctx context.Context, req harness.Request) (*harness.Response, error) {
			resp, err := client.Send(ctx, req)
			if err == nil && req.Method == "GET" && req.Path == servicedef.PetPath(petIDNonexistent) {
				resp.Status = 200
			}
			return resp, err
		})
		results, verdicts := RunFunctionalSuite(context.Background(), broken, SuiteConfig{})

		assert.Equal(t, []string{"pets/find nonexistent pet"}, failedTests(results))
		for _, v := range verdicts {
			if v.Scenario == "pets/find nonexistent pet" {
				assert.Equal(t, scenario.Failed, v.Outcome)
				require.NotNil(t, v.Failure)
				assert.Equal(t, "200", v.Failure.Actual)
			} else {
				assert.Equal(t, scenario.Passed, v.Outcome, v.Scenario)
			}
		}
	})
}

func TestFilteredGroupsAreSkipped(t *testing.T) {
	withMockService(t, func(client *harness.Client) {
		var skip ptest.RegexList
		require.NoError(t, skip.Set("^users"))
		filters := ptest.RegexFilters{MustNotMatch: skip}

		results, verdicts := RunFunctionalSuite(context.Background(), client, SuiteConfig{
			Test: ptest.TestConfiguration{Filter: filters.AsFilter},
		})

		assert.True(t, results.OK())
		assert.Len(t, verdicts, len(PetScenarios(Options{}))+len(OrderScenarios(Options{})))
		assert.Equal(t, len(UserScenarios(Options{})), results.Skipped())
	})
}

func TestConfiguredStatusSets(t *testing.T) {
	withMockService(t, func(client *harness.Client) {
		// the mock service answers 404 for a missing pet, so a set without it must fail
		opts := Options{UploadMissingStatuses: []int{415}}
		results, _ := RunFunctionalSuite(context.Background(), client, SuiteConfig{Options: opts})

		assert.Equal(t, []string{"pets/upload image for nonexistent pet"}, failedTests(results))
	})
}
