package main

import (
	"regexp"
	"strings"

	"github.com/petstore-harness/petstore-contract-tests/config"
	"github.com/petstore-harness/petstore-contract-tests/framework/ptest"

	"github.com/alessio/shellescape"
	"github.com/spf13/pflag"
)

type commandParams struct {
	configFile string
	baseURL    string
	filters    ptest.RegexFilters
	debug      bool
	debugAll   bool
	reportPath string
}

func (c *commandParams) addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "configuration file (default: harness.yaml if present)")
	fs.StringVar(&c.baseURL, "url", "", "base URL of the service under test, overriding base_url")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.reportPath, "report", "", "write a JSON report to this file")
}

func (c *commandParams) addFilterFlags(fs *pflag.FlagSet) {
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
}

func (c *commandParams) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.debugAll {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// rerunCommand is a command line that runs only the failed tests again.
func (c *commandParams) rerunCommand(program, baseURL string, failures []ptest.TestResult) string {
	var b commandBuilder
	b.add(program, "functional")
	if c.configFile != "" {
		b.add("--config", c.configFile)
	}
	b.add("--url", baseURL)
	for _, f := range failures {
		b.add("--run", "^"+regexp.QuoteMeta(f.TestID.String())+"$")
	}
	if c.debug || c.debugAll {
		b.add("--debug")
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
