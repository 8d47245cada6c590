package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sdrshn-nmbr/txsched/internal/server"
)

type HTTPOptions struct {
	BaseURL          string
	HTTPClient       *http.Client
	RetryPolicy      RetryPolicy
	UserAgent        string
	MaxResponseBytes uint64
}

type RequestOptions struct {
	DisableRetry bool
}

type HTTPClient struct {
	baseURL          *url.URL
	httpClient       *http.Client
	retryPolicy      RetryPolicy
	retryStatus      map[int]struct{}
	userAgent        string
	maxResponseBytes uint64
	rngMu            sync.Mutex
	rng              *rand.Rand
}

type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

func NewHTTPClient(opts HTTPOptions) (*HTTPClient, error) {
	if opts.BaseURL == "" {
		return nil, ErrInvalidArgument
	}
	if opts.HTTPClient == nil {
		return nil, ErrInvalidArgument
	}
	if opts.MaxResponseBytes == 0 {
		return nil, ErrInvalidArgument
	}
	if err := opts.RetryPolicy.Validate(); err != nil {
		return nil, err
	}

	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	retryStatus := make(map[int]struct{}, len(opts.RetryPolicy.RetryStatusCodes))
	for _, code := range opts.RetryPolicy.RetryStatusCodes {
		retryStatus[code] = struct{}{}
	}

	return &HTTPClient{
		baseURL:          parsed,
		httpClient:       opts.HTTPClient,
		retryPolicy:      opts.RetryPolicy,
		retryStatus:      retryStatus,
		userAgent:        opts.UserAgent,
		maxResponseBytes: opts.MaxResponseBytes,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (c *HTTPClient) Health(ctx context.Context, opts RequestOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.doRequest(ctx, requestSpec{
		method: http.MethodGet,
		url:    c.buildURL("/healthz", nil),
	}, opts, drainResponse)
}

func (c *HTTPClient) Analyze(
	ctx context.Context,
	history string,
	save bool,
	opts RequestOptions,
) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if strings.TrimSpace(history) == "" {
		return Report{}, ErrInvalidArgument
	}

	payload, err := json.Marshal(server.AnalyzeRequest{History: history, Save: save})
	if err != nil {
		return Report{}, err
	}
	// Saving is not idempotent.
	if save {
		opts.DisableRetry = true
	}

	var report Report
	err = c.doRequest(ctx, jsonPost(c.buildURL("/analyze", nil), payload), opts,
		func(resp *http.Response) error {
			return c.decodeJSON(resp, &report)
		})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func (c *HTTPClient) Graph(ctx context.Context, history string, opts RequestOptions) (Graph, error) {
	if err := ctx.Err(); err != nil {
		return Graph{}, err
	}
	if strings.TrimSpace(history) == "" {
		return Graph{}, ErrInvalidArgument
	}

	payload, err := json.Marshal(server.GraphRequest{History: history, Format: "json"})
	if err != nil {
		return Graph{}, err
	}

	var g Graph
	err = c.doRequest(ctx, jsonPost(c.buildURL("/graph", nil), payload), opts,
		func(resp *http.Response) error {
			return c.decodeJSON(resp, &g)
		})
	if err != nil {
		return Graph{}, err
	}
	return g, nil
}

// GraphDOT returns the precedence graph as Graphviz source.
func (c *HTTPClient) GraphDOT(ctx context.Context, history string, opts RequestOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(history) == "" {
		return "", ErrInvalidArgument
	}

	payload, err := json.Marshal(server.GraphRequest{History: history, Format: "dot"})
	if err != nil {
		return "", err
	}

	var dot string
	err = c.doRequest(ctx, jsonPost(c.buildURL("/graph", nil), payload), opts,
		func(resp *http.Response) error {
			body, err := c.readResponseBody(resp)
			if err != nil {
				return err
			}
			dot = string(body)
			return nil
		})
	if err != nil {
		return "", err
	}
	return dot, nil
}

func (c *HTTPClient) Diagram(ctx context.Context, history string, opts RequestOptions) (*Diagram, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(history) == "" {
		return nil, ErrInvalidArgument
	}

	payload, err := json.Marshal(server.HistoryRequest{History: history})
	if err != nil {
		return nil, err
	}

	var d Diagram
	err = c.doRequest(ctx, jsonPost(c.buildURL("/diagram", nil), payload), opts,
		func(resp *http.Response) error {
			return c.decodeJSON(resp, &d)
		})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *HTTPClient) Catalog(ctx context.Context, opts RequestOptions) ([]Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var scenarios []Scenario
	err := c.doRequest(ctx, requestSpec{
		method: http.MethodGet,
		url:    c.buildURL("/catalog", nil),
	}, opts, func(resp *http.Response) error {
		return c.decodeJSON(resp, &scenarios)
	})
	if err != nil {
		return nil, err
	}
	return scenarios, nil
}

func (c *HTTPClient) GetReport(ctx context.Context, id string, opts RequestOptions) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if id == "" {
		return Report{}, ErrInvalidArgument
	}

	var report Report
	err := c.doRequest(ctx, requestSpec{
		method: http.MethodGet,
		url:    c.buildURL("/reports/"+id, nil),
	}, opts, func(resp *http.Response) error {
		return c.decodeJSON(resp, &report)
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func (c *HTTPClient) ListReports(ctx context.Context, opts RequestOptions) ([]ReportSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var summaries []ReportSummary
	err := c.doRequest(ctx, requestSpec{
		method: http.MethodGet,
		url:    c.buildURL("/reports", nil),
	}, opts, func(resp *http.Response) error {
		return c.decodeJSON(resp, &summaries)
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (c *HTTPClient) DeleteReport(ctx context.Context, id string, opts RequestOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidArgument
	}

	return c.doRequest(ctx, requestSpec{
		method: http.MethodDelete,
		url:    c.buildURL("/reports/"+id, nil),
	}, opts, drainResponse)
}

type requestSpec struct {
	method  string
	url     string
	body    []byte
	headers map[string]string
}

func jsonPost(requestURL string, payload []byte) requestSpec {
	return requestSpec{
		method: http.MethodPost,
		url:    requestURL,
		body:   payload,
		headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

func (c *HTTPClient) doRequest(
	ctx context.Context,
	spec requestSpec,
	opts RequestOptions,
	onSuccess func(*http.Response) error,
) error {
	if ctx == nil {
		return ErrInvalidArgument
	}

	disableRetry := opts.DisableRetry
	attempt := uint32(0)
	var lastErr error

	for {
		attempt++
		req, err := c.buildRequest(ctx, spec)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			err = c.handleResponse(resp, onSuccess)
		}

		if err == nil {
			return nil
		}
		lastErr = err
		if disableRetry {
			return err
		}
		if attempt >= c.retryPolicy.MaxAttempts {
			return errors.Join(ErrRetryExhausted, lastErr)
		}
		if !c.shouldRetry(err) {
			return err
		}

		delay := c.nextDelay(attempt)
		if err := sleepWithContext(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *HTTPClient) buildRequest(
	ctx context.Context,
	spec requestSpec,
) (*http.Request, error) {
	var body io.Reader
	if spec.body != nil {
		body = bytes.NewReader(spec.body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, spec.url, body)
	if err != nil {
		return nil, err
	}

	for key, value := range spec.headers {
		req.Header.Set(key, value)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *HTTPClient) handleResponse(
	resp *http.Response,
	onSuccess func(*http.Response) error,
) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.readHTTPError(resp)
	}
	return onSuccess(resp)
}

func (c *HTTPClient) readHTTPError(resp *http.Response) error {
	body, err := c.readResponseBody(resp)
	if err != nil {
		return err
	}

	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err == nil {
		if message, ok := payload["error"]; ok {
			return c.mapHTTPError(resp.StatusCode, message)
		}
	}

	return c.mapHTTPError(resp.StatusCode, string(body))
}

func (c *HTTPClient) readResponseBody(resp *http.Response) ([]byte, error) {
	reader := io.LimitReader(resp.Body, int64(c.maxResponseBytes))
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)) >= c.maxResponseBytes {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

func (c *HTTPClient) decodeJSON(resp *http.Response, dest any) error {
	body, err := c.readResponseBody(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

func (c *HTTPClient) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrInvalidArgument) {
		return false
	}
	if errors.Is(err, ErrInvalidHistory) {
		return false
	}
	if errors.Is(err, ErrReportNotFound) {
		return false
	}
	if errors.Is(err, ErrUnsupported) {
		return false
	}
	if errors.Is(err, ErrResponseTooLarge) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		_, ok := c.retryStatus[httpErr.StatusCode]
		return ok
	}

	return true
}

func (c *HTTPClient) nextDelay(attempt uint32) time.Duration {
	delay := c.retryPolicy.BaseDelay * (1 << (attempt - 1))
	if delay > c.retryPolicy.MaxDelay {
		delay = c.retryPolicy.MaxDelay
	}
	if c.retryPolicy.Jitter > 0 {
		jitter := c.randomJitter(c.retryPolicy.Jitter)
		delay += jitter
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

func (c *HTTPClient) randomJitter(maxJitter time.Duration) time.Duration {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	if maxJitter == 0 {
		return 0
	}

	jitter := time.Duration(c.rng.Int63n(int64(maxJitter)))
	return jitter - maxJitter/2
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drainResponse(resp *http.Response) error {
	_, err := io.Copy(io.Discard, resp.Body)
	return err
}

func (c *HTTPClient) buildURL(pathSuffix string, query url.Values) string {
	base := *c.baseURL
	base.Path = joinURLPath(base.Path, pathSuffix)
	if query != nil {
		base.RawQuery = query.Encode()
	}
	return base.String()
}

func joinURLPath(basePath string, suffix string) string {
	basePath = strings.TrimSuffix(basePath, "/")
	suffix = strings.TrimPrefix(suffix, "/")

	if basePath == "" {
		return "/" + suffix
	}
	if suffix == "" {
		return basePath
	}
	return basePath + "/" + suffix
}

func (c *HTTPClient) mapHTTPError(status int, message string) error {
	switch status {
	case http.StatusBadRequest:
		if strings.HasPrefix(message, server.ErrUnknownFormat.Error()) {
			return ErrInvalidArgument
		}
		return errors.Join(ErrInvalidHistory, errors.New(message))
	case http.StatusNotFound:
		return ErrReportNotFound
	case http.StatusNotImplemented:
		return ErrUnsupported
	default:
		return &HTTPError{StatusCode: status, Message: message}
	}
}
