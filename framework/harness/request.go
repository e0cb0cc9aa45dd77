package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	ContentTypeJSON      = "application/json"
	DefaultMultipartName = "file"
)

// Request describes one HTTP interaction with the service under test. Path is relative to
// the client's base URL and API prefix, for instance "/pet/1003".
//
// At most one of JSONBody, RawBody and Multipart should be set. JSONBody is marshalled
// with encoding/json, so it can be a typed struct or a map for payloads that deliberately
// violate the service's schema.
type Request struct {
	Method      string
	Path        string
	Headers     map[string]string
	Query       url.Values
	JSONBody    interface{}
	RawBody     []byte
	ContentType string
	Multipart   *MultipartFile
}

// MultipartFile is a single file part of a multipart/form-data request.
type MultipartFile struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     []byte
}

func (r Request) String() string {
	s := r.Method + " " + r.Path
	if len(r.Query) > 0 {
		s += "?" + r.Query.Encode()
	}
	return s
}

// Response is what came back from the service. Body is always fully read.
type Response struct {
	Status   int
	Headers  http.Header
	Body     []byte
	Duration time.Duration
}

// JSON parses the body as an arbitrary JSON value.
func (r *Response) JSON() (ldvalue.Value, error) {
	var v ldvalue.Value
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return ldvalue.Null(), fmt.Errorf("response body is not valid JSON: %w", err)
	}
	return v, nil
}

// DecodeJSON unmarshals the body into target.
func (r *Response) DecodeJSON(target interface{}) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("response body is not valid JSON: %w", err)
	}
	return nil
}

func (r *Response) String() string {
	body := strings.TrimSpace(string(r.Body))
	if body == "" {
		return fmt.Sprintf("HTTP %d (empty body)", r.Status)
	}
	return fmt.Sprintf("HTTP %d %s", r.Status, body)
}

// Sender is anything that can deliver a Request. *Client is the real implementation;
// tests substitute fakes.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req Request) (*Response, error)

func (f SenderFunc) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
