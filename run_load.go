package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/config"
	"github.com/petstore-harness/petstore-contract-tests/framework/load"
	"github.com/petstore-harness/petstore-contract-tests/logging"
	"github.com/petstore-harness/petstore-contract-tests/petstoretests"
	"github.com/petstore-harness/petstore-contract-tests/report"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"

	"github.com/sirupsen/logrus"
)

// selectPlans returns the named plans, or all of them in name order, after applying the
// plans file and the configured pace.
func selectPlans(cfg *config.Config, names []string) ([]load.Plan, error) {
	plans := petstoretests.BuiltinPlans()
	if cfg.Load.PlansFile != "" {
		overrides, err := petstoretests.ReadPlanOverrides(cfg.Load.PlansFile)
		if err != nil {
			return nil, err
		}
		if plans, err = petstoretests.ApplyPlanOverrides(plans, overrides); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		names = petstoretests.PlanNames(plans)
	}
	ret := make([]load.Plan, 0, len(names))
	for _, name := range names {
		p, ok := plans[name]
		if !ok {
			return nil, fmt.Errorf("unknown load plan %q (available: %v)", name, petstoretests.PlanNames(plans))
		}
		if cfg.Load.Pace > 0 {
			p.Pace = cfg.Load.Pace
		}
		ret = append(ret, p)
	}
	return ret, nil
}

func serveMetrics(addr string, metrics *load.Metrics, logger *logrus.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("serving load metrics on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server failed: %s", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func runLoad(ctx context.Context, params *commandParams, planNames []string, out io.Writer) error {
	cfg, err := params.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	plans, err := selectPlans(cfg, planNames)
	if err != nil {
		return err
	}

	peak := 1
	for _, p := range plans {
		if p.PeakTarget() > peak {
			peak = p.PeakTarget()
		}
	}
	client := newClient(cfg, logger, peak)
	if err := client.AwaitService(ctx, servicedef.PathInventory, statusQueryTimeout, out); err != nil {
		return fmt.Errorf("test service error: %w", err)
	}

	metrics := load.NewMetrics()
	if cfg.Load.MetricsAddr != "" {
		stopMetrics := serveMetrics(cfg.Load.MetricsAddr, metrics, logger)
		defer stopMetrics()
	}

	generator := load.NewGenerator(load.GeneratorConfig{
		Sender:  client,
		Logger:  logging.ForComponent(logger, "load"),
		Metrics: metrics,
		Observer: func(t load.Transition) {
			logger.WithFields(logrus.Fields{"phase": t.Phase.String(), "vus": t.VUs}).
				Debugf("phase change at %s", t.At.Round(time.Millisecond))
		},
	})

	rep := report.New(cfg.BaseURL)
	failed := false
	for _, plan := range plans {
		fmt.Fprintln(out)
		summary, err := generator.Run(ctx, plan)
		if err != nil {
			return fmt.Errorf("load plan %q: %w", plan.Name, err)
		}
		summary.Print(out)
		rep.AddLoadSummary(summary)
		if !summary.OK() {
			failed = true
		}
		if ctx.Err() != nil {
			break
		}
	}

	if params.reportPath != "" {
		if err := rep.WriteFile(params.reportPath); err != nil {
			return fmt.Errorf("could not write report: %w", err)
		}
		logger.WithField("path", params.reportPath).Info("report written")
	}
	if failed {
		return errTestsFailed
	}
	return ctx.Err()
}
