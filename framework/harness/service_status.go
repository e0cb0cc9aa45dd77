package harness

import (
	"context"
	"fmt"
	"io"
	"time"
)

const statusPollInterval = time.Millisecond * 100

// AwaitService verifies that the service is responding before any tests run, by polling
// the given path until it returns any HTTP response at all. The status code does not
// matter here: a 404 still proves that something is listening.
func (c *Client) AwaitService(ctx context.Context, path string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to service at %s", c.URL(path))

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := c.Send(ctx, Request{Method: "GET", Path: path})
		if err == nil {
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Service responded with status %d\n", resp.Status)
			return nil
		}
		if !IsTransportError(err) {
			fmt.Fprintln(output)
			return err
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return fmt.Errorf("timed out, result of last query was: %w", err)
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(output)
			return ctx.Err()
		case <-time.After(statusPollInterval):
		}
	}
}
