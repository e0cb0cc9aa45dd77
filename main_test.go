package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/config"
	"github.com/petstore-harness/petstore-contract-tests/framework"
	"github.com/petstore-harness/petstore-contract-tests/framework/ptest"
	"github.com/petstore-harness/petstore-contract-tests/mockstore"
	"github.com/petstore-harness/petstore-contract-tests/petstoretests"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func init() {
	color.NoColor = true
}

func startMockService(t *testing.T) string {
	gin.SetMode(gin.TestMode)
	server := httptest.NewServer(mockstore.NewServer(mockstore.NewStore(), mockstore.Config{}).Handler())
	t.Cleanup(server.Close)
	return server.URL
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRerunCommand(t *testing.T) {
	params := commandParams{configFile: "my config.yaml", debug: true}
	failures := []ptest.TestResult{
		{TestID: ptest.TestID{Path: []string{"pets/find pet by id"}}},
		{TestID: ptest.TestID{Path: []string{"users/log out"}}},
	}
	assert.Equal(t,
		`./harness functional --config 'my config.yaml' --url http://localhost:8080 `+
			`--run '^pets/find pet by id$' --run '^users/log out$' --debug`,
		params.rerunCommand("./harness", "http://localhost:8080", failures))
}

func TestConsoleTestLogger(t *testing.T) {
	var out bytes.Buffer
	logger := &ConsoleTestLogger{Out: &out, DebugOutputOnFailure: true}
	id := ptest.TestID{Path: []string{"pets/create pet"}}
	debug := framework.CapturedOutput{{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Message: "POST /pet"}}

	logger.TestStarted(id)
	logger.TestError(id, errors.New("line one\nline two"))
	logger.TestFinished(id, true, debug)
	logger.TestSkipped(ptest.TestID{Path: []string{"users/log out"}}, "excluded by filter parameters")
	logger.TestFinished(ptest.TestID{Path: []string{"orders/get inventory"}}, false, debug)

	s := out.String()
	assert.Contains(t, s, "[pets/create pet]\n")
	assert.Contains(t, s, "  [pets/create pet] line one\n  [pets/create pet] line two\n")
	assert.Contains(t, s, "  FAILED: pets/create pet\n")
	assert.Contains(t, s, "POST /pet")
	assert.Contains(t, s, "  SKIPPED: users/log out (excluded by filter parameters)\n")
	assert.NotContains(t, s, "FAILED: orders/get inventory")
}

func TestSelectPlans(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Load.Pace = 250 * time.Millisecond

	plans, err := selectPlans(cfg, nil)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	for _, p := range plans {
		assert.Equal(t, 250*time.Millisecond, p.Pace)
	}

	plans, err = selectPlans(cfg, []string{petstoretests.PlanUserLogin})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, petstoretests.PlanUserLogin, plans[0].Name)

	_, err = selectPlans(cfg, []string{"no-such-plan"})
	assert.Error(t, err)
}

func TestFunctionalCommandAgainstMockService(t *testing.T) {
	url := startMockService(t)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	out, err := execute("functional", "--url", url, "--run", "^pets/", "--report", reportPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "All tests passed")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	rep := ldvalue.Parse(data)
	assert.True(t, rep.GetByKey("ok").BoolValue())
	assert.Equal(t, len(petstoretests.PetScenarios(petstoretests.Options{})), rep.GetByKey("scenarios").Count())
}

func TestLoadCommandAgainstMockService(t *testing.T) {
	url := startMockService(t)
	plansFile := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(plansFile, []byte(`
plans:
  create-pet:
    stages:
      - duration: 200ms
        target: 2
      - duration: 100ms
        target: 0
    pace: 20ms
    threshold: p(95)<2s
`), 0o600))
	configFile := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("load:\n  plans_file: "+plansFile+"\n"), 0o600))

	out, err := execute("load", "--config", configFile, "--url", url, "--plan", petstoretests.PlanCreatePet)
	require.NoError(t, err, out)
	assert.Contains(t, out, petstoretests.PlanCreatePet)
}

func TestFunctionalCommandWithEveryScenarioSkipped(t *testing.T) {
	url := startMockService(t)
	out, err := execute("functional", "--url", url, "--skip", ".")
	require.NoError(t, err, out)
	assert.Contains(t, out, "skip any matching")
	assert.Contains(t, out, "All tests passed (0 run")
}
