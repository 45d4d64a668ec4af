package mathapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/mathool/internal/domain"
)

func zeroBackOff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

// newTestServer answers each path with a fixed status and body and records
// the last request URI.
func newTestServer(t *testing.T, routes map[string]struct {
	status int
	body   string
}) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var last atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.Store(r.URL.RequestURI())
		route, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(route.status)
		w.Write([]byte(route.body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestDispatchModes(t *testing.T) {
	srv, last := newTestServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/prime":           {status: 200, body: `{"number":7,"prime":true}`},
		"/api/factorial":       {status: 200, body: `{"number":7,"factorial":"5040"}`},
		"/api/prime-factorial": {status: 200, body: `{"number":7,"prime":true,"factorial":"5040"}`},
	})
	client := NewClient(srv.URL+"/api", WithBackOff(zeroBackOff))

	tests := []struct {
		mode    domain.Mode
		wantURI string
		want    domain.ResultRecord
	}{
		{
			mode:    domain.ModePrime,
			wantURI: "/api/prime?number=7",
			want:    domain.ResultRecord{Number: domain.NewNumber(7), Prime: domain.BoolPtr(true)},
		},
		{
			mode:    domain.ModeFactorial,
			wantURI: "/api/factorial?number=7",
			want:    domain.ResultRecord{Number: domain.NewNumber(7), Factorial: domain.StringPtr("5040")},
		},
		{
			mode:    domain.ModeBoth,
			wantURI: "/api/prime-factorial?number=7",
			want:    domain.ResultRecord{Number: domain.NewNumber(7), Prime: domain.BoolPtr(true), Factorial: domain.StringPtr("5040")},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got, err := client.Dispatch(context.Background(), domain.NewNumber(7), tt.mode)
			if err != nil {
				t.Fatalf("Dispatch error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
			if uri := last.Load().(string); uri != tt.wantURI {
				t.Errorf("requested %s, want %s", uri, tt.wantURI)
			}
		})
	}
}

func TestDispatchKeepsOnlyModeFields(t *testing.T) {
	srv, _ := newTestServer(t, map[string]struct {
		status int
		body   string
	}{
		"/prime": {status: 200, body: `{"number":10,"prime":false,"factorial":"3628800"}`},
	})
	client := NewClient(srv.URL)

	got, err := client.Dispatch(context.Background(), domain.NewNumber(10), domain.ModePrime)
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if got.Factorial != nil {
		t.Errorf("prime mode kept factorial %q", *got.Factorial)
	}
	if got.Prime == nil || *got.Prime {
		t.Errorf("unexpected prime %+v", got)
	}
}

func TestDispatchResponseNumberIsAuthoritative(t *testing.T) {
	srv, _ := newTestServer(t, map[string]struct {
		status int
		body   string
	}{
		"/factorial": {status: 200, body: `{"number":5,"factorial":120}`},
	})
	client := NewClient(srv.URL)

	got, err := client.Dispatch(context.Background(), domain.NewNumber(6), domain.ModeFactorial)
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if got.Number != domain.NewNumber(5) {
		t.Errorf("number = %s, want 5", got.Number)
	}
	if got.Factorial == nil || *got.Factorial != "120" {
		t.Errorf("numeric factorial not kept as digits: %+v", got)
	}
}

func TestDispatchServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "message mapping",
			status: 400,
			body:   `{"timestamp":"2025-01-01T10:00:00","statusCode":400,"statusMessage":"Bad Request","message":{"number":"must be >= 0"}}`,
			want:   "Error 400 - Bad Request:\nmust be >= 0",
		},
		{
			name:   "mapping keeps payload order",
			status: 400,
			body:   `{"statusCode":400,"statusMessage":"Bad Request","message":{"z":"first","a":"second"}}`,
			want:   "Error 400 - Bad Request:\nfirst\nsecond",
		},
		{
			name:   "message string",
			status: 422,
			body:   `{"statusCode":422,"statusMessage":"Unprocessable Entity","message":"Number too large"}`,
			want:   "Error 422 - Unprocessable Entity:\nNumber too large",
		},
		{
			name:   "error field fallback with http status",
			status: 500,
			body:   `{"timestamp":1735725600000,"status":500,"error":"Internal Server Error","path":"/prime"}`,
			want:   "Error 500 - Internal Server Error:\nInternal Server Error",
		},
		{
			name:   "unknown error",
			status: 503,
			body:   `{"statusCode":503,"statusMessage":"Service Unavailable"}`,
			want:   "Error 503 - Service Unavailable:\nUnknown error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, map[string]struct {
				status int
				body   string
			}{
				"/prime-factorial": {status: tt.status, body: tt.body},
			})
			client := NewClient(srv.URL, WithBackOff(zeroBackOff))

			_, err := client.Dispatch(context.Background(), domain.NewNumber(1), domain.ModeBoth)
			var serr *domain.ServiceError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *domain.ServiceError, got %v", err)
			}
			if serr.Error() != tt.want {
				t.Errorf("got %q, want %q", serr.Error(), tt.want)
			}
		})
	}
}

func TestDispatchServiceErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"nope"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetries(3), WithBackOff(zeroBackOff))
	_, err := client.Dispatch(context.Background(), domain.NewNumber(1), domain.ModePrime)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestDispatchMalformedBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "success html", status: 200, body: `<html>hi</html>`},
		{name: "error html", status: 502, body: `<html>Bad Gateway</html>`},
		{name: "fractional number", status: 200, body: `{"number":1.5,"prime":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, map[string]struct {
				status int
				body   string
			}{
				"/prime": {status: tt.status, body: tt.body},
			})
			client := NewClient(srv.URL)

			_, err := client.Dispatch(context.Background(), domain.NewNumber(2), domain.ModePrime)
			if !errors.Is(err, domain.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

type flakyTransport struct {
	failures atomic.Int32
	calls    atomic.Int32
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func TestDispatchRetriesTransportFaults(t *testing.T) {
	srv, _ := newTestServer(t, map[string]struct {
		status int
		body   string
	}{
		"/prime": {status: 200, body: `{"number":3,"prime":true}`},
	})

	transport := &flakyTransport{next: http.DefaultTransport}
	transport.failures.Store(2)
	client := NewClient(srv.URL,
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetries(2),
		WithBackOff(zeroBackOff),
	)

	prime, err := client.CheckPrime(context.Background(), domain.NewNumber(3))
	if err != nil {
		t.Fatalf("CheckPrime error: %v", err)
	}
	if !prime {
		t.Error("expected prime")
	}
	if transport.calls.Load() != 3 {
		t.Errorf("round trips = %d, want 3", transport.calls.Load())
	}
}

func TestDispatchTransportFaultAfterRetries(t *testing.T) {
	transport := &flakyTransport{next: http.DefaultTransport}
	transport.failures.Store(100)
	client := NewClient("http://mathool.invalid",
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetries(1),
		WithBackOff(zeroBackOff),
	)

	_, err := client.Dispatch(context.Background(), domain.NewNumber(3), domain.ModeBoth)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if transport.calls.Load() != 2 {
		t.Errorf("round trips = %d, want 2", transport.calls.Load())
	}
}

func TestDispatchPerAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, WithTimeout(50*time.Millisecond), WithRetries(0))
	_, err := client.Dispatch(context.Background(), domain.NewNumber(3), domain.ModePrime)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestCalculateFactorialRequiresField(t *testing.T) {
	srv, last := newTestServer(t, map[string]struct {
		status int
		body   string
	}{
		"/factorial": {status: 200, body: `{"number":4}`},
	})
	client := NewClient(srv.URL)

	_, err := client.CalculateFactorial(context.Background(), domain.NewNumber(4))
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if uri := last.Load().(string); uri != "/factorial?number=4" {
		t.Errorf("requested %s", uri)
	}
}

func TestDispatchRejectsUnknownMode(t *testing.T) {
	client := NewClient("http://unused")
	_, err := client.Dispatch(context.Background(), domain.NewNumber(1), domain.Mode("cube"))
	if !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
