// Package mathapi is the HTTP adapter for the remote Mathool service.
package mathapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/pkg/logger"
	"github.com/doeshing/mathool/internal/ports"
)

const (
	tracerName = "github.com/doeshing/mathool/mathapi"
	// maxBodyBytes bounds how much of a response is read; factorials of large
	// inputs are long but not unbounded.
	maxBodyBytes = 16 << 20
)

// Client dispatches prime/factorial queries over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	newBackOff func() backoff.BackOff
	logger     ports.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many extra attempts follow a transport fault.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackOff sets the retry delay policy.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

// WithLogger routes client diagnostics to log.
func WithLogger(log ports.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// NewClient builds a client for the service rooted at baseURL,
// e.g. https://mathool.onrender.com/api/v1/math.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout: domain.DefaultServiceTimeoutSeconds * time.Second,
		retries: domain.DefaultServiceRetries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Dispatch implements ports.MathService.
//
// A non-success status yields a *domain.ServiceError. Network failures wrap
// domain.ErrTransport and undecodable bodies wrap domain.ErrMalformedResponse.
func (c *Client) Dispatch(ctx context.Context, number domain.Number, mode domain.Mode) (domain.ResultRecord, error) {
	if !mode.Valid() {
		return domain.ResultRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("math.mode", string(mode)),
			attribute.String("math.number", number.String()),
		),
	)
	defer span.End()

	rec, err := c.dispatch(ctx, number, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ResultRecord{}, err
	}
	return rec, nil
}

func (c *Client) dispatch(ctx context.Context, number domain.Number, mode domain.Mode) (domain.ResultRecord, error) {
	target := c.endpoint(mode, number)
	c.logger.Debug("dispatching", map[string]interface{}{"url": target, "mode": string(mode)})

	resp, err := c.get(ctx, target)
	if err != nil {
		c.logger.Error("request failed", err, map[string]interface{}{"url": target})
		return domain.ResultRecord{}, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.status))

	if resp.status < 200 || resp.status > 299 {
		errResp, err := decodeError(resp.status, resp.body)
		if err != nil {
			c.logger.Error("undecodable error payload", err, map[string]interface{}{"status": resp.status})
			return domain.ResultRecord{}, fmt.Errorf("%w: status %d: %w", domain.ErrMalformedResponse, resp.status, err)
		}
		c.logger.Warn("request rejected", map[string]interface{}{
			"status":  errResp.StatusCode,
			"message": errResp.Message,
		})
		return domain.ResultRecord{}, &domain.ServiceError{Response: errResp}
	}

	rec, err := decodeResult(resp.body, mode, number)
	if err != nil {
		c.logger.Error("undecodable result payload", err, map[string]interface{}{"url": target})
		return domain.ResultRecord{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if rec.Number != number {
		c.logger.Debug("service normalized number", map[string]interface{}{
			"requested": number.String(),
			"returned":  rec.Number.String(),
		})
	}
	return rec, nil
}

// CheckPrime implements ports.MathService using the fixed prime target.
func (c *Client) CheckPrime(ctx context.Context, number domain.Number) (bool, error) {
	rec, err := c.Dispatch(ctx, number, domain.ModePrime)
	if err != nil {
		return false, err
	}
	if rec.Prime == nil {
		return false, fmt.Errorf("%w: prime missing from response", domain.ErrMalformedResponse)
	}
	return *rec.Prime, nil
}

// CalculateFactorial implements ports.MathService using the fixed factorial target.
func (c *Client) CalculateFactorial(ctx context.Context, number domain.Number) (string, error) {
	rec, err := c.Dispatch(ctx, number, domain.ModeFactorial)
	if err != nil {
		return "", err
	}
	if rec.Factorial == nil {
		return "", fmt.Errorf("%w: factorial missing from response", domain.ErrMalformedResponse)
	}
	return *rec.Factorial, nil
}

func (c *Client) endpoint(mode domain.Mode, number domain.Number) string {
	query := url.Values{}
	query.Set("number", number.String())
	return c.baseURL + "/" + mode.Path() + "?" + query.Encode()
}

type response struct {
	status int
	body   []byte
}

// get performs the request, retrying transport faults. Any HTTP response,
// whatever its status, ends the retry loop.
func (c *Client) get(ctx context.Context, target string) (response, error) {
	operation := func() (response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
		if err != nil {
			return response{}, backoff.Permanent(err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return response{}, backoff.Permanent(err)
			}
			return response{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return response{}, err
		}
		return response{status: resp.StatusCode, body: body}, nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying request", map[string]interface{}{
			"url":   target,
			"error": err.Error(),
			"wait":  wait.String(),
		})
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.retries+1)),
		backoff.WithNotify(notify),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return response{}, perm.Unwrap()
		}
		return response{}, err
	}
	return resp, nil
}

var _ ports.MathService = (*Client)(nil)
