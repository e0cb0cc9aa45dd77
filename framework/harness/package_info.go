// Package harness is the HTTP client adapter the rest of the test harness uses to talk to
// the service under test.
//
// It knows nothing about pets, orders or users: it builds a request from a Request value
// (JSON body, raw body, query parameters or a single-file multipart upload), sends it
// relative to a configured base URL and API prefix, and returns the status, headers and
// raw body. Connection and timeout failures are reported as *TransportError so that callers
// never confuse an infrastructure problem with a 4xx/5xx application response. Nothing is
// retried.
package harness
