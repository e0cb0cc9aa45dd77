package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const statusQueryTimeout = time.Second * 10

var errTestsFailed = errors.New("some tests failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	var params commandParams

	root := &cobra.Command{
		Use:           "petstore-contract-tests",
		Short:         "Functional and load verification of a pet store REST service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	params.addGlobalFlags(root.PersistentFlags())

	functional := &cobra.Command{
		Use:   "functional",
		Short: "Run the functional scenario catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunctional(cmd.Context(), &params, out)
		},
	}
	params.addFilterFlags(functional.Flags())

	var planNames []string
	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Run load plans and judge their latency thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), &params, planNames, out)
		},
	}
	loadCmd.Flags().StringSliceVar(&planNames, "plan", nil, "load plan(s) to run (default: all)")

	var port int
	mockService := &cobra.Command{
		Use:   "mock-service",
		Short: "Serve an in-memory pet store implementing the documented contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMockService(cmd.Context(), &params, port, cmd.Flags().Changed("port"), out)
		},
	}
	mockService.Flags().IntVar(&port, "port", 8080, "port to listen on, overriding mock.port")

	root.AddCommand(functional, loadCmd, mockService)
	return root
}
