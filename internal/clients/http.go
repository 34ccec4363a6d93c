// Package clients calls the catalog and shipping services over HTTP.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/auth"
	"fulfillment/internal/util"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// httpClient sends JSON requests to one service behind a circuit breaker. Only
// unavailability of the remote service counts as a breaker failure.
type httpClient struct {
	name        string
	baseURL     string
	internalKey string
	http        *http.Client
	cb          *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

func newHTTPClient(name, baseURL, internalKey string, timeout time.Duration) *httpClient {
	logger := util.GetLogger()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !apperr.IsCode(err, apperr.CodeUpstreamUnavailable)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &httpClient{
		name:        name,
		baseURL:     baseURL,
		internalKey: internalKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// errorBody is the error shape every service answers with.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do sends in as JSON and decodes a 2xx answer into out. Transport errors, 5xx answers
// and an open breaker become UPSTREAM_UNAVAILABLE wrapping the remote error; 4xx answers
// become the remote coded error.
func (c *httpClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, c.name+" circuit open", err)
	}
	return err
}

func (c *httpClient) roundTrip(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", c.name, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.internalKey != "" {
		req.Header.Set(auth.InternalKeyHeader, c.internalKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed", zap.String("upstream", c.name), zap.String("path", path), zap.Error(err))
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, c.name+" unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, "failed to read "+c.name+" response", err)
	}

	if resp.StatusCode >= 400 {
		remote := decodeError(resp.StatusCode, raw)
		if resp.StatusCode >= 500 {
			return apperr.Wrap(apperr.CodeUpstreamUnavailable, fmt.Sprintf("%s returned %d", c.name, resp.StatusCode), remote)
		}
		return remote
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.CodeUpstreamUnavailable, "malformed "+c.name+" response", err)
	}
	return nil
}

func decodeError(status int, raw []byte) *apperr.Error {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Code == "" {
		return apperr.Newf(apperr.CodeInternal, "unexpected status %d", status)
	}
	return apperr.New(apperr.Code(eb.Code), eb.Error)
}
