package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/petstore-harness/petstore-contract-tests/config"
	"github.com/petstore-harness/petstore-contract-tests/framework"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/ptest"
	"github.com/petstore-harness/petstore-contract-tests/logging"
	"github.com/petstore-harness/petstore-contract-tests/petstoretests"
	"github.com/petstore-harness/petstore-contract-tests/report"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"

	"github.com/sirupsen/logrus"
)

func newClient(cfg *config.Config, logger *logrus.Logger, maxConns int) *harness.Client {
	var clientLogger framework.Logger
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		clientLogger = logging.ForComponent(logger, "client")
	}
	return harness.NewClient(harness.ClientConfig{
		BaseURL:         cfg.BaseURL,
		APIPrefix:       cfg.APIPrefix,
		Timeout:         cfg.RequestTimeout,
		MaxConnsPerHost: maxConns,
		Logger:          clientLogger,
	})
}

func suiteOptions(cfg *config.Config) (petstoretests.Options, error) {
	opts := petstoretests.Options{
		DeleteNotFoundStatuses: cfg.DeleteNotFoundStatuses,
		UploadMissingStatuses:  cfg.UploadMissingStatuses,
	}
	if cfg.UploadFile != "" {
		content, err := os.ReadFile(cfg.UploadFile)
		if err != nil {
			return opts, fmt.Errorf("upload file: %w", err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(cfg.UploadFile))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		opts.Image = &harness.MultipartFile{
			FieldName:   harness.DefaultMultipartName,
			FileName:    filepath.Base(cfg.UploadFile),
			ContentType: contentType,
			Content:     content,
		}
	}
	return opts, nil
}

func runFunctional(ctx context.Context, params *commandParams, out io.Writer) error {
	cfg, err := params.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	opts, err := suiteOptions(cfg)
	if err != nil {
		return err
	}

	client := newClient(cfg, logger, cfg.Parallelism)
	if err := client.AwaitService(ctx, servicedef.PathInventory, statusQueryTimeout, out); err != nil {
		return fmt.Errorf("test service error: %w", err)
	}

	fmt.Fprintln(out)
	params.filters.Describe(out)
	fmt.Fprintln(out, "Running functional scenarios")

	testLogger := &ConsoleTestLogger{
		Out:                  out,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	results, verdicts := petstoretests.RunFunctionalSuite(ctx, client, petstoretests.SuiteConfig{
		Options:     opts,
		Parallelism: cfg.Parallelism,
		Test: ptest.TestConfiguration{
			Filter:     params.filters.AsFilter,
			TestLogger: testLogger,
		},
	})

	fmt.Fprintln(out)
	ptest.PrintResults(results, out)

	if params.reportPath != "" {
		rep := report.New(cfg.BaseURL)
		rep.AddVerdicts(verdicts)
		if err := rep.WriteFile(params.reportPath); err != nil {
			return fmt.Errorf("could not write report: %w", err)
		}
		logger.WithField("path", params.reportPath).Info("report written")
	}

	if !results.OK() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To run only the failed tests again:")
		fmt.Fprintf(out, "  %s\n", params.rerunCommand(os.Args[0], cfg.BaseURL, results.Failures))
		return errTestsFailed
	}
	return nil
}
