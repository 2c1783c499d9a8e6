package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Request is an outgoing HTTP request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Timing     Timing
}

// Timing records when a request started and finished.
type Timing struct {
	StartTime time.Time
	EndTime   time.Time
	Total     time.Duration
}

// Client sends HTTP requests, keeping cookies in an optional jar.
type Client struct {
	httpClient *http.Client
	config     Config
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: Config{
			Timeout:        30 * time.Second,
			FollowRedirect: true,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom HTTP transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithNoRedirects disables automatic redirect following.
func WithNoRedirects() Option {
	return func(c *Client) {
		c.config.FollowRedirect = false
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

// WithCookieJar stores response cookies in jar and sends matching ones,
// including across redirects.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// Send executes an HTTP request and returns the response.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	httpReq, err := c.toHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	endTime := time.Now()

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       bodyBytes,
		Timing: Timing{
			StartTime: startTime,
			EndTime:   endTime,
			Total:     endTime.Sub(startTime),
		},
	}, nil
}

// toHTTPRequest converts a Request to an http.Request.
func (c *Client) toHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	return httpReq, nil
}
