package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework"
)

const (
	DefaultAPIPrefix = "/api/v3"
	DefaultTimeout   = time.Second * 10

	tcpDialTimeout       = 5 * time.Second
	tcpKeepAliveInterval = 30 * time.Second
	idleConnTimeout      = 90 * time.Second
)

// ClientConfig contains the parameters for NewClient.
type ClientConfig struct {
	// BaseURL is the scheme and host of the service, e.g. "http://localhost:8080".
	BaseURL string
	// APIPrefix is prepended to every request path. Defaults to DefaultAPIPrefix; set it
	// to "/" to send paths unmodified.
	APIPrefix string
	// Timeout bounds each request including reading the body. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Headers are added to every request before the request's own headers.
	Headers map[string]string
	// MaxConnsPerHost sizes the connection pool; load runs set it to the peak VU count.
	MaxConnsPerHost int
	Logger          framework.Logger
}

// Client is the real Sender. It is safe for concurrent use; WithLogger returns a copy that
// shares the underlying connection pool.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	logger     framework.Logger
}

func NewClient(config ClientConfig) *Client {
	prefix := config.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conns := config.MaxConnsPerHost
	if conns <= 0 {
		conns = 10
	}
	logger := config.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	transport := &http.Transport{
		MaxIdleConns:        conns,
		MaxIdleConnsPerHost: conns,
		IdleConnTimeout:     idleConnTimeout,
		DialContext: (&net.Dialer{
			Timeout:   tcpDialTimeout,
			KeepAlive: tcpKeepAliveInterval,
		}).DialContext,
		ResponseHeaderTimeout: timeout,
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/") + prefix,
		headers:    config.Headers,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		logger:     logger,
	}
}

// WithLogger returns a client that writes its request log to the given logger.
func (c *Client) WithLogger(logger framework.Logger) *Client {
	if logger == nil {
		logger = framework.NullLogger()
	}
	c1 := *c
	c1.logger = logger
	return &c1
}

// URL returns the absolute URL for a path relative to the API prefix.
func (c *Client) URL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Send performs the request. A non-nil error is either a *TransportError, or a plain
// error if the request itself could not be built (for instance an unmarshallable body).
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("Request: %s", req)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Printf("Transport failure: %s", err)
		return nil, &TransportError{Method: httpReq.Method, URL: httpReq.URL.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Printf("Failed reading response body: %s", err)
		return nil, &TransportError{Method: httpReq.Method, URL: httpReq.URL.String(), Err: err}
	}
	ret := &Response{
		Status:   resp.StatusCode,
		Headers:  resp.Header,
		Body:     body,
		Duration: time.Since(start),
	}
	c.logger.Printf("Response (%s): %s", ret.Duration, ret)
	return ret, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	contentType := req.ContentType
	switch {
	case req.Multipart != nil:
		data, ct, err := encodeMultipart(*req.Multipart)
		if err != nil {
			return nil, err
		}
		body, contentType = bytes.NewReader(data), ct
	case req.JSONBody != nil:
		data, err := json.Marshal(req.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("could not encode request body for %s: %w", req, err)
		}
		body = bytes.NewReader(data)
		if contentType == "" {
			contentType = ContentTypeJSON
		}
	case req.RawBody != nil:
		body = bytes.NewReader(req.RawBody)
		if contentType == "" {
			contentType = ContentTypeJSON
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("invalid request %s: %w", req, err)
	}
	if len(req.Query) > 0 {
		httpReq.URL.RawQuery = req.Query.Encode()
	}
	httpReq.Header.Set("Accept", ContentTypeJSON)
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

func encodeMultipart(file MultipartFile) ([]byte, string, error) {
	fieldName := file.FieldName
	if fieldName == "" {
		fieldName = DefaultMultipartName
	}
	fileName := file.FileName
	if fileName == "" {
		fileName = "upload.bin"
	}
	partType := file.ContentType
	if partType == "" {
		partType = "application/octet-stream"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
	header.Set("Content-Type", partType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("could not create multipart section: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", fmt.Errorf("could not write multipart content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("could not finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
